package struai

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DocQueryService is the graph traversal API for one project: primitive
// node/search/neighbor queries, raw parameterized graph queries, and the
// composite reconciliation reports built on top of them (reconcile.go).
type DocQueryService struct {
	client    *Client
	projectID string
}

// QuerySummaryCounters are the server-side write counters of one query.
type QuerySummaryCounters struct {
	NodesCreated         *int  `json:"nodes_created,omitempty"`
	NodesDeleted         *int  `json:"nodes_deleted,omitempty"`
	RelationshipsCreated *int  `json:"relationships_created,omitempty"`
	RelationshipsDeleted *int  `json:"relationships_deleted,omitempty"`
	PropertiesSet        *int  `json:"properties_set,omitempty"`
	LabelsAdded          *int  `json:"labels_added,omitempty"`
	LabelsRemoved        *int  `json:"labels_removed,omitempty"`
	ContainsUpdates      *bool `json:"contains_updates,omitempty"`
}

// QuerySummary is the execution summary attached to query results.
type QuerySummary struct {
	Database               *string               `json:"database,omitempty"`
	QueryType              *string               `json:"query_type,omitempty"`
	ResultAvailableAfterMS *int                  `json:"result_available_after_ms,omitempty"`
	ResultConsumedAfterMS  *int                  `json:"result_consumed_after_ms,omitempty"`
	Counters               *QuerySummaryCounters `json:"counters,omitempty"`
}

// GraphNode is an opaque graph node: a label set plus an unconstrained
// property bag. The client reads well-known keys out of Properties where a
// composite operation needs them; it never models the full node schema.
type GraphNode struct {
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// StringProp reads a string property.
func (n *GraphNode) StringProp(key string) (string, bool) {
	if n == nil || n.Properties == nil {
		return "", false
	}
	s, ok := n.Properties[key].(string)
	return s, ok
}

// NodeGetResult is the payload of the node-get primitive. A missing node is
// a normal result, reported through Found, never an error.
type NodeGetResult struct {
	OK      bool           `json:"ok"`
	Command string         `json:"command"`
	Input   map[string]any `json:"input,omitempty"`
	Found   bool           `json:"found"`
	Node    *GraphNode     `json:"node,omitempty"`
	Summary *QuerySummary  `json:"summary,omitempty"`
}

// SheetEntitiesResult is the payload of the sheet-entities primitive.
type SheetEntitiesResult struct {
	OK       bool             `json:"ok"`
	Command  string           `json:"command"`
	Input    map[string]any   `json:"input,omitempty"`
	Entities []map[string]any `json:"entities"`
	Count    int              `json:"count"`
	Summary  *QuerySummary    `json:"summary,omitempty"`
}

// DocSearchHit is one ranked hit from the docquery search primitive.
type DocSearchHit struct {
	Node  map[string]any `json:"node,omitempty"`
	Score *float64       `json:"score,omitempty"`
}

// DocSearchResult is the payload of the search primitive.
type DocSearchResult struct {
	OK      bool           `json:"ok"`
	Command string         `json:"command"`
	Input   map[string]any `json:"input,omitempty"`
	Hits    []DocSearchHit `json:"hits"`
	Count   int            `json:"count"`
	Summary *QuerySummary  `json:"summary,omitempty"`
}

// Neighbor is one edge-plus-node pair from the neighbors primitive.
type Neighbor struct {
	Direction    string         `json:"direction,omitempty"`
	Relationship map[string]any `json:"relationship,omitempty"`
	NeighborNode map[string]any `json:"neighbor_node,omitempty"`
}

// NeighborsResult is the payload of the neighbors primitive.
type NeighborsResult struct {
	OK        bool           `json:"ok"`
	Command   string         `json:"command"`
	Input     map[string]any `json:"input,omitempty"`
	Neighbors []Neighbor     `json:"neighbors"`
	Count     int            `json:"count"`
	Summary   *QuerySummary  `json:"summary,omitempty"`
}

// CypherResult is the payload of a raw parameterized graph query.
type CypherResult struct {
	OK          bool             `json:"ok"`
	Command     string           `json:"command"`
	Input       map[string]any   `json:"input,omitempty"`
	Records     []map[string]any `json:"records"`
	RecordCount int              `json:"record_count"`
	Truncated   bool             `json:"truncated"`
	Summary     *QuerySummary    `json:"summary,omitempty"`
}

// NodeGet fetches one node by uuid. Found=false is a normal result.
func (s *DocQueryService) NodeGet(ctx context.Context, uuid string) (*NodeGetResult, error) {
	if err := requireField("uuid", uuid); err != nil {
		return nil, err
	}
	query := url.Values{"uuid": {uuid}}
	var result NodeGetResult
	if err := s.client.get(ctx, s.path("/node-get"), query, &result); err != nil {
		return nil, fmt.Errorf("node-get: %w", err)
	}
	return &result, nil
}

// SheetEntitiesOptions configures SheetEntities.
type SheetEntitiesOptions struct {
	EntityType string
	Limit      int // default 100
}

// SheetEntities lists entities scoped to one sheet.
func (s *DocQueryService) SheetEntities(ctx context.Context, sheetID string, opts SheetEntitiesOptions) (*SheetEntitiesResult, error) {
	if err := requireField("sheet id", sheetID); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{
		"sheet_id": {sheetID},
		"limit":    {strconv.Itoa(limit)},
	}
	if opts.EntityType != "" {
		query.Set("entity_type", opts.EntityType)
	}
	var result SheetEntitiesResult
	if err := s.client.get(ctx, s.path("/sheet-entities"), query, &result); err != nil {
		return nil, fmt.Errorf("sheet-entities: %w", err)
	}
	return &result, nil
}

// DocSearchOptions configures the docquery search primitive.
type DocSearchOptions struct {
	Index string // named search index, default "entities"
	Limit int    // default 10
}

// Search runs ranked search within one named index.
func (s *DocQueryService) Search(ctx context.Context, queryText string, opts DocSearchOptions) (*DocSearchResult, error) {
	if err := requireField("query", queryText); err != nil {
		return nil, err
	}
	index := opts.Index
	if index == "" {
		index = "entities"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{
		"query": {queryText},
		"index": {index},
		"limit": {strconv.Itoa(limit)},
	}
	var result DocSearchResult
	if err := s.client.get(ctx, s.path("/search"), query, &result); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &result, nil
}

// NeighborsOptions configures the neighbors primitive.
type NeighborsOptions struct {
	// Direction is in, out, or both. Default both. Any other value is a
	// local validation error; it is never sent to the server.
	Direction        string
	RelationshipType string
	Limit            int // default 25
}

// Neighbors expands one hop from a node.
func (s *DocQueryService) Neighbors(ctx context.Context, uuid string, opts NeighborsOptions) (*NeighborsResult, error) {
	if err := requireField("uuid", uuid); err != nil {
		return nil, err
	}
	direction := opts.Direction
	if direction == "" {
		direction = "both"
	}
	switch direction {
	case "in", "out", "both":
	default:
		return nil, validationErrorf("direction must be in, out, or both, got %q", direction)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 25
	}
	query := url.Values{
		"uuid":      {uuid},
		"direction": {direction},
		"limit":     {strconv.Itoa(limit)},
	}
	if opts.RelationshipType != "" {
		query.Set("relationship_type", opts.RelationshipType)
	}
	var result NeighborsResult
	if err := s.client.get(ctx, s.path("/neighbors"), query, &result); err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	return &result, nil
}

// Cypher executes a parameterized read query, returning at most maxRows
// rows (default 100).
func (s *DocQueryService) Cypher(ctx context.Context, queryText string, params map[string]any, maxRows int) (*CypherResult, error) {
	if err := requireField("query", queryText); err != nil {
		return nil, err
	}
	if maxRows <= 0 {
		maxRows = 100
	}
	body := map[string]any{
		"query":    queryText,
		"max_rows": maxRows,
	}
	if params != nil {
		body["params"] = params
	}
	var result CypherResult
	if err := s.client.post(ctx, s.path("/cypher"), body, &result); err != nil {
		return nil, fmt.Errorf("cypher: %w", err)
	}
	return &result, nil
}

func (s *DocQueryService) path(suffix string) string {
	return "/projects/" + s.projectID + "/docquery" + suffix
}
