package struai

import (
	"context"
	"fmt"
)

// Warning is an advisory finding attached to a reconciliation report.
// Warnings never fail the call that produced them.
type Warning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Warning codes emitted by the composite operations.
const (
	WarnMissingSheetNode         = "missing_sheet_node"
	WarnDuplicateSheetNodes      = "duplicate_sheet_nodes"
	WarnUnreachableEntities      = "unreachable_entities"
	WarnInventoryWithoutSheet    = "inventory_without_sheet_node"
	WarnSheetWithoutInventory    = "sheet_node_without_inventory"
	WarnSheetOnlyInventory       = "sheet_node_only_inventory"
	WarnEntitiesMissingSheetID   = "entities_missing_sheet_id"
	WarnSourceNotFound           = "source_not_found"
	WarnSourceMissingLabel       = "source_missing_label"
	WarnTargetSheetMismatch      = "target_sheet_mismatch"
	WarnTargetSheetNotDeclared   = "target_sheet_not_declared"
	WarnNoReferencesResolved     = "no_references_resolved"
	WarnAutoScaleUnavailable     = "auto_scale_unavailable"
)

// The composite operations below each run several independent graph
// queries and reconcile the results client-side. The queries do not share
// a server-side transaction: a concurrent write between them can produce a
// transiently inconsistent report (e.g. a sheet deleted mid-call). That is
// an accepted read-committed, best-effort contract, not something the
// client papers over.

const sheetNodeQuery = `
MATCH (s:Sheet {project_id: $project_id, sheet_id: $sheet_id})
RETURN s.uuid AS uuid, s.sheet_id AS sheet_id, s.name AS name, s.page_hash AS page_hash`

const sheetLabelCountQuery = `
MATCH (n:Entity {project_id: $project_id, sheet_id: $sheet_id})
UNWIND labels(n) AS label
RETURN label, count(*) AS count
ORDER BY count DESC`

const sheetRelTypeCountQuery = `
MATCH (a:Entity {project_id: $project_id})-[r]->()
WHERE $sheet_id IN r.source_sheets
RETURN type(r) AS type, count(r) AS count
ORDER BY count DESC`

const sheetReachabilityQuery = `
MATCH (n:Entity {project_id: $project_id, sheet_id: $sheet_id})
WHERE NOT n:Sheet
WITH collect(n) AS nodes
OPTIONAL MATCH (s:Sheet {project_id: $project_id, sheet_id: $sheet_id})
OPTIONAL MATCH (s)-[*1..2]->(m:Entity {sheet_id: $sheet_id})
WHERE NOT m:Sheet
RETURN size(nodes) AS non_sheet_total, count(DISTINCT m) AS reachable_non_sheet`

const sheetOrphanQuery = `
MATCH (n:Entity {project_id: $project_id, sheet_id: $sheet_id})
WHERE NOT n:Sheet
  AND NOT EXISTS {
    MATCH (s:Sheet {project_id: $project_id, sheet_id: $sheet_id})-[*1..2]->(n)
  }
RETURN n.uuid AS uuid, n.name AS name, n.category AS category
LIMIT $orphan_limit`

// LabelCount pairs a node label with its count on one sheet.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RelTypeCount pairs a relationship type with its count for one sheet.
type RelTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Reachability tallies how much of a sheet's content is connected to its
// sheet node within two hops.
type Reachability struct {
	HasSheetNode        bool `json:"has_sheet_node"`
	SheetNodeCount      int  `json:"sheet_node_count"`
	NonSheetTotal       int  `json:"non_sheet_total"`
	ReachableNonSheet   int  `json:"reachable_non_sheet"`
	UnreachableNonSheet int  `json:"unreachable_non_sheet"`
}

// SheetSummaryReport is the reconciled health report for one sheet. It is
// a pure function of the query results it reconciles; nothing is cached
// between calls.
type SheetSummaryReport struct {
	SheetID            string           `json:"sheet_id"`
	SheetNode          map[string]any   `json:"sheet_node,omitempty"`
	NodeLabelCounts    []LabelCount     `json:"node_label_counts"`
	RelationshipCounts []RelTypeCount   `json:"relationship_counts"`
	Reachability       Reachability     `json:"reachability"`
	OrphanExamples     []map[string]any `json:"orphan_examples,omitempty"`
	Warnings           []Warning        `json:"warnings"`
}

// SheetSummary reconciles five independent queries into a consistency
// report for one sheet. orphanLimit caps the unreachable-node examples and
// is clamped to [1, 200]. Warnings are advisory; the call succeeds whenever
// the queries succeed.
func (s *DocQueryService) SheetSummary(ctx context.Context, sheetID string, orphanLimit int) (*SheetSummaryReport, error) {
	if err := requireField("sheet id", sheetID); err != nil {
		return nil, err
	}
	orphanLimit = clamp(orphanLimit, 1, 200)
	params := map[string]any{"sheet_id": sheetID}

	sheetNodes, err := s.Cypher(ctx, sheetNodeQuery, params, 10)
	if err != nil {
		return nil, fmt.Errorf("sheet-summary: %w", err)
	}
	labelCounts, err := s.Cypher(ctx, sheetLabelCountQuery, params, 200)
	if err != nil {
		return nil, fmt.Errorf("sheet-summary: %w", err)
	}
	relCounts, err := s.Cypher(ctx, sheetRelTypeCountQuery, params, 200)
	if err != nil {
		return nil, fmt.Errorf("sheet-summary: %w", err)
	}
	reach, err := s.Cypher(ctx, sheetReachabilityQuery, params, 1)
	if err != nil {
		return nil, fmt.Errorf("sheet-summary: %w", err)
	}
	orphanParams := map[string]any{"sheet_id": sheetID, "orphan_limit": orphanLimit}
	orphans, err := s.Cypher(ctx, sheetOrphanQuery, orphanParams, orphanLimit)
	if err != nil {
		return nil, fmt.Errorf("sheet-summary: %w", err)
	}

	report := &SheetSummaryReport{
		SheetID:         sheetID,
		NodeLabelCounts: make([]LabelCount, 0, len(labelCounts.Records)),
		Warnings:        []Warning{},
	}
	if len(sheetNodes.Records) > 0 {
		report.SheetNode = sheetNodes.Records[0]
	}
	for _, rec := range labelCounts.Records {
		label, _ := recString(rec, "label")
		count, _ := recInt(rec, "count")
		report.NodeLabelCounts = append(report.NodeLabelCounts, LabelCount{Label: label, Count: count})
	}
	for _, rec := range relCounts.Records {
		relType, _ := recString(rec, "type")
		count, _ := recInt(rec, "count")
		report.RelationshipCounts = append(report.RelationshipCounts, RelTypeCount{Type: relType, Count: count})
	}
	report.OrphanExamples = orphans.Records

	nonSheetTotal := 0
	reachable := 0
	if len(reach.Records) > 0 {
		nonSheetTotal, _ = recInt(reach.Records[0], "non_sheet_total")
		reachable, _ = recInt(reach.Records[0], "reachable_non_sheet")
	}
	report.Reachability = Reachability{
		HasSheetNode:        len(sheetNodes.Records) > 0,
		SheetNodeCount:      len(sheetNodes.Records),
		NonSheetTotal:       nonSheetTotal,
		ReachableNonSheet:   reachable,
		UnreachableNonSheet: max(0, nonSheetTotal-reachable),
	}

	if report.Reachability.SheetNodeCount == 0 {
		report.Warnings = append(report.Warnings, Warning{
			Code:    WarnMissingSheetNode,
			Message: fmt.Sprintf("no sheet node found for sheet %s", sheetID),
		})
	}
	if report.Reachability.SheetNodeCount > 1 {
		report.Warnings = append(report.Warnings, Warning{
			Code:    WarnDuplicateSheetNodes,
			Message: fmt.Sprintf("%d sheet nodes share sheet id %s", report.Reachability.SheetNodeCount, sheetID),
			Details: map[string]any{"sheet_node_count": report.Reachability.SheetNodeCount},
		})
	}
	if report.Reachability.UnreachableNonSheet > 0 {
		report.Warnings = append(report.Warnings, Warning{
			Code:    WarnUnreachableEntities,
			Message: fmt.Sprintf("%d entities on sheet %s are not reachable from the sheet node within two hops", report.Reachability.UnreachableNonSheet, sheetID),
			Details: map[string]any{"unreachable_non_sheet": report.Reachability.UnreachableNonSheet},
		})
	}
	return report, nil
}

const allSheetNodesQuery = `
MATCH (s:Sheet {project_id: $project_id})
RETURN s.sheet_id AS sheet_id, s.uuid AS uuid, s.name AS name
ORDER BY s.sheet_id`

const sheetInventoryQuery = `
MATCH (n:Entity {project_id: $project_id})
WHERE n.sheet_id IS NOT NULL
RETURN n.sheet_id AS sheet_id, count(n) AS entity_count
ORDER BY sheet_id`

const duplicateSheetNodesQuery = `
MATCH (s:Sheet {project_id: $project_id})
WITH s.sheet_id AS sheet_id, count(s) AS sheet_node_count
WHERE sheet_node_count > 1
RETURN sheet_id, sheet_node_count`

const missingSheetIDQuery = `
MATCH (n:Entity {project_id: $project_id})
WHERE NOT n:Sheet AND n.sheet_id IS NULL
RETURN count(n) AS missing_sheet_id_count`

// SheetInventoryEntry is one sheet's entity count from the project-wide
// inventory query.
type SheetInventoryEntry struct {
	SheetID     string `json:"sheet_id"`
	EntityCount int    `json:"entity_count"`
}

// SheetListTotals summarizes a SheetListReport.
type SheetListTotals struct {
	SheetNodeCount      int `json:"sheet_node_count"`
	InventorySheetCount int `json:"inventory_sheet_count"`
	MissingSheetIDCount int `json:"missing_sheet_id_count"`
}

// SheetListReport is the project-wide sheet inventory cross-check.
type SheetListReport struct {
	SheetNodes       []map[string]any      `json:"sheet_nodes"`
	Inventory        []SheetInventoryEntry `json:"entity_sheet_inventory"`
	Totals           SheetListTotals       `json:"totals"`
	MismatchWarnings []Warning             `json:"mismatch_warnings"`
}

// SheetList reconciles four project-wide queries: all sheet nodes, the
// per-sheet entity inventory, duplicated sheet-node ids, and the count of
// entities missing a sheet id. Set differences between the sheet-node id
// set and the inventory id set become typed warnings; several anomaly
// kinds can coexist in one report.
func (s *DocQueryService) SheetList(ctx context.Context) (*SheetListReport, error) {
	sheetNodes, err := s.Cypher(ctx, allSheetNodesQuery, nil, 500)
	if err != nil {
		return nil, fmt.Errorf("sheet-list: %w", err)
	}
	inventory, err := s.Cypher(ctx, sheetInventoryQuery, nil, 500)
	if err != nil {
		return nil, fmt.Errorf("sheet-list: %w", err)
	}
	duplicates, err := s.Cypher(ctx, duplicateSheetNodesQuery, nil, 500)
	if err != nil {
		return nil, fmt.Errorf("sheet-list: %w", err)
	}
	missing, err := s.Cypher(ctx, missingSheetIDQuery, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("sheet-list: %w", err)
	}

	report := &SheetListReport{
		SheetNodes:       sheetNodes.Records,
		Inventory:        make([]SheetInventoryEntry, 0, len(inventory.Records)),
		MismatchWarnings: []Warning{},
	}

	nodeIDs := map[string]bool{}
	for _, rec := range sheetNodes.Records {
		if id, ok := recString(rec, "sheet_id"); ok && id != "" {
			nodeIDs[id] = true
		}
	}
	inventoryByID := map[string]int{}
	for _, rec := range inventory.Records {
		id, _ := recString(rec, "sheet_id")
		count, _ := recInt(rec, "entity_count")
		report.Inventory = append(report.Inventory, SheetInventoryEntry{SheetID: id, EntityCount: count})
		if id != "" {
			inventoryByID[id] = count
		}
	}

	missingCount := 0
	if len(missing.Records) > 0 {
		missingCount, _ = recInt(missing.Records[0], "missing_sheet_id_count")
	}
	report.Totals = SheetListTotals{
		SheetNodeCount:      len(sheetNodes.Records),
		InventorySheetCount: len(report.Inventory),
		MissingSheetIDCount: missingCount,
	}

	for _, entry := range report.Inventory {
		if !nodeIDs[entry.SheetID] {
			report.MismatchWarnings = append(report.MismatchWarnings, Warning{
				Code:    WarnInventoryWithoutSheet,
				Message: fmt.Sprintf("entities carry sheet id %s but no sheet node exists", entry.SheetID),
				Details: map[string]any{"sheet_id": entry.SheetID, "entity_count": entry.EntityCount},
			})
			continue
		}
		// The sheet node itself is part of its inventory; an inventory of
		// exactly one means a sheet with no real content.
		if entry.EntityCount == 1 {
			report.MismatchWarnings = append(report.MismatchWarnings, Warning{
				Code:    WarnSheetOnlyInventory,
				Message: fmt.Sprintf("sheet %s has a sheet node but no entities", entry.SheetID),
				Details: map[string]any{"sheet_id": entry.SheetID},
			})
		}
	}
	for id := range nodeIDs {
		if _, ok := inventoryByID[id]; !ok {
			report.MismatchWarnings = append(report.MismatchWarnings, Warning{
				Code:    WarnSheetWithoutInventory,
				Message: fmt.Sprintf("sheet node %s has no entity inventory", id),
				Details: map[string]any{"sheet_id": id},
			})
		}
	}
	for _, rec := range duplicates.Records {
		id, _ := recString(rec, "sheet_id")
		count, _ := recInt(rec, "sheet_node_count")
		report.MismatchWarnings = append(report.MismatchWarnings, Warning{
			Code:    WarnDuplicateSheetNodes,
			Message: fmt.Sprintf("%d sheet nodes share sheet id %s", count, id),
			Details: map[string]any{"sheet_id": id, "sheet_node_count": count},
		})
	}
	if missingCount > 0 {
		report.MismatchWarnings = append(report.MismatchWarnings, Warning{
			Code:    WarnEntitiesMissingSheetID,
			Message: fmt.Sprintf("%d entities have no sheet id", missingCount),
			Details: map[string]any{"count": missingCount},
		})
	}
	return report, nil
}

const referenceSourceQuery = `
MATCH (n:Entity {project_id: $project_id, uuid: $uuid})
RETURN labels(n) AS labels, n.sheet_id AS sheet_id, n.detail_id AS detail_id,
       n.section_id AS section_id, n.target_sheets AS target_sheets`

const referenceExpandQuery = `
MATCH (n:Entity {project_id: $project_id, uuid: $uuid})-[r:REFERENCES]->(t:Entity)
OPTIONAL MATCH (h1:Entity)-[:CONTAINS]->(t)
OPTIONAL MATCH (h2:Entity)-[:CONTAINS]->(h1)
RETURN r.uuid AS rel_id, type(r) AS rel_type, r.fact AS fact,
       r.expected_target_sheet AS expected_target_sheet,
       t.uuid AS target_uuid, t.sheet_id AS target_sheet_id,
       t.name AS target_name, labels(t) AS target_labels,
       h1.uuid AS hop1_uuid, h1.name AS hop1_name,
       h2.uuid AS hop2_uuid, h2.name AS hop2_name
LIMIT $limit`

// ReferenceSource describes the node a reference resolution started from.
type ReferenceSource struct {
	UUID         string   `json:"uuid"`
	Labels       []string `json:"labels,omitempty"`
	SheetID      string   `json:"sheet_id,omitempty"`
	DetailID     string   `json:"detail_id,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
	TargetSheets []string `json:"target_sheets,omitempty"`
}

// ContainmentHop is one level of containment context above a reference
// target.
type ContainmentHop struct {
	UUID string `json:"uuid"`
	Name string `json:"name,omitempty"`
}

// ResolvedReference is one outgoing reference with its target identity, up
// to two levels of containment context, and the consistency checks run
// against the source's declarations. A nil check means one side was
// unknown and the check was skipped.
type ResolvedReference struct {
	RelationshipID      string           `json:"relationship_id"`
	RelationshipType    string           `json:"relationship_type,omitempty"`
	Fact                string           `json:"fact,omitempty"`
	ExpectedTargetSheet string           `json:"expected_target_sheet,omitempty"`
	TargetUUID          string           `json:"target_uuid"`
	TargetSheetID       string           `json:"target_sheet_id,omitempty"`
	TargetName          string           `json:"target_name,omitempty"`
	ContainedIn         []ContainmentHop `json:"contained_in,omitempty"`
	SheetMatch          *bool            `json:"sheet_match,omitempty"`
	DeclaredMatch       *bool            `json:"declared_match,omitempty"`
}

// ReferenceResolveReport is the reconciled output of ReferenceResolve.
type ReferenceResolveReport struct {
	UUID       string              `json:"uuid"`
	Found      bool                `json:"found"`
	Source     *ReferenceSource    `json:"source,omitempty"`
	References []ResolvedReference `json:"resolved_references"`
	Count      int                 `json:"count"`
	Warnings   []Warning           `json:"warnings"`
}

// referenceSourceLabel is the label reference sources are expected to
// carry; its absence is advisory, not fatal.
const referenceSourceLabel = "Reference"

// ReferenceResolve resolves the outgoing references of one node and
// cross-checks each target against the source's declared target sheets and
// the relationship's expected-target-sheet metadata.
//
// A missing source node is a normal outcome: Found=false, one
// source_not_found warning, no error. Expansion rows are deduplicated by
// (relationship id, target id, hop1 id, hop2 id) since the optional hops
// can multiply join rows. Consistency checks only fire when both sides are
// known; mismatches stay advisory.
func (s *DocQueryService) ReferenceResolve(ctx context.Context, uuid string, limit int) (*ReferenceResolveReport, error) {
	if err := requireField("uuid", uuid); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	report := &ReferenceResolveReport{
		UUID:       uuid,
		References: []ResolvedReference{},
		Warnings:   []Warning{},
	}

	source, err := s.Cypher(ctx, referenceSourceQuery, map[string]any{"uuid": uuid}, 1)
	if err != nil {
		return nil, fmt.Errorf("reference-resolve: %w", err)
	}
	if len(source.Records) == 0 {
		report.Warnings = append(report.Warnings, Warning{
			Code:    WarnSourceNotFound,
			Message: fmt.Sprintf("no node found with uuid %s", uuid),
		})
		return report, nil
	}
	report.Found = true

	rec := source.Records[0]
	src := &ReferenceSource{UUID: uuid}
	src.Labels = recStringList(rec, "labels")
	src.SheetID, _ = recString(rec, "sheet_id")
	src.DetailID, _ = recString(rec, "detail_id")
	src.SectionID, _ = recString(rec, "section_id")
	src.TargetSheets = recStringList(rec, "target_sheets")
	report.Source = src

	hasLabel := false
	for _, label := range src.Labels {
		if label == referenceSourceLabel {
			hasLabel = true
			break
		}
	}
	if !hasLabel {
		report.Warnings = append(report.Warnings, Warning{
			Code:    WarnSourceMissingLabel,
			Message: fmt.Sprintf("node %s lacks the %s label", uuid, referenceSourceLabel),
			Details: map[string]any{"labels": src.Labels},
		})
	}

	expanded, err := s.Cypher(ctx, referenceExpandQuery,
		map[string]any{"uuid": uuid, "limit": limit}, limit)
	if err != nil {
		return nil, fmt.Errorf("reference-resolve: %w", err)
	}

	seen := map[[4]string]bool{}
	for _, row := range expanded.Records {
		relID, _ := recString(row, "rel_id")
		targetUUID, _ := recString(row, "target_uuid")
		hop1UUID, _ := recString(row, "hop1_uuid")
		hop2UUID, _ := recString(row, "hop2_uuid")
		key := [4]string{relID, targetUUID, hop1UUID, hop2UUID}
		if seen[key] {
			continue
		}
		seen[key] = true

		ref := ResolvedReference{
			RelationshipID: relID,
			TargetUUID:     targetUUID,
		}
		ref.RelationshipType, _ = recString(row, "rel_type")
		ref.Fact, _ = recString(row, "fact")
		ref.ExpectedTargetSheet, _ = recString(row, "expected_target_sheet")
		ref.TargetSheetID, _ = recString(row, "target_sheet_id")
		ref.TargetName, _ = recString(row, "target_name")
		if hop1UUID != "" {
			name, _ := recString(row, "hop1_name")
			ref.ContainedIn = append(ref.ContainedIn, ContainmentHop{UUID: hop1UUID, Name: name})
			if hop2UUID != "" {
				name, _ := recString(row, "hop2_name")
				ref.ContainedIn = append(ref.ContainedIn, ContainmentHop{UUID: hop2UUID, Name: name})
			}
		}

		if ref.TargetSheetID != "" && ref.ExpectedTargetSheet != "" {
			match := ref.TargetSheetID == ref.ExpectedTargetSheet
			ref.SheetMatch = &match
			if !match {
				report.Warnings = append(report.Warnings, Warning{
					Code: WarnTargetSheetMismatch,
					Message: fmt.Sprintf("reference %s targets sheet %s but expected %s",
						relID, ref.TargetSheetID, ref.ExpectedTargetSheet),
					Details: map[string]any{"relationship_id": relID, "target_uuid": targetUUID},
				})
			}
		}
		if ref.TargetSheetID != "" && len(src.TargetSheets) > 0 {
			match := false
			for _, declared := range src.TargetSheets {
				if declared == ref.TargetSheetID {
					match = true
					break
				}
			}
			ref.DeclaredMatch = &match
			if !match {
				report.Warnings = append(report.Warnings, Warning{
					Code: WarnTargetSheetNotDeclared,
					Message: fmt.Sprintf("reference %s targets sheet %s, absent from the source's declared target sheets",
						relID, ref.TargetSheetID),
					Details: map[string]any{"relationship_id": relID, "target_uuid": targetUUID},
				})
			}
		}

		report.References = append(report.References, ref)
	}
	report.Count = len(report.References)

	if report.Count == 0 {
		report.Warnings = append(report.Warnings, Warning{
			Code:    WarnNoReferencesResolved,
			Message: fmt.Sprintf("node %s has no resolvable outgoing references", uuid),
		})
	}
	return report, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func recString(rec map[string]any, key string) (string, bool) {
	if rec == nil {
		return "", false
	}
	s, ok := rec[key].(string)
	return s, ok
}

func recInt(rec map[string]any, key string) (int, bool) {
	if rec == nil {
		return 0, false
	}
	switch v := rec[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

func recStringList(rec map[string]any, key string) []string {
	if rec == nil {
		return nil
	}
	raw, ok := rec[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
