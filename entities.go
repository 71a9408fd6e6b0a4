package struai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// EntityLocation is one place an entity appears.
type EntityLocation struct {
	SheetID    string  `json:"sheet_id"`
	SheetTitle *string `json:"sheet_title,omitempty"`
	Page       int     `json:"page"`
}

// Fact is a directed relationship between two entities.
type Fact struct {
	ID          string  `json:"id"`
	Fact        string  `json:"fact"`
	EdgeType    string  `json:"edge_type"`
	SourceID    string  `json:"source_id"`
	SourceLabel *string `json:"source_label,omitempty"`
	TargetID    string  `json:"target_id"`
	TargetLabel *string `json:"target_label,omitempty"`
	ValidFrom   *string `json:"valid_from,omitempty"`
	ValidUntil  *string `json:"valid_until,omitempty"`
}

// Entity is a full entity with relationship context.
type Entity struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Label         string           `json:"label"`
	Description   *string          `json:"description,omitempty"`
	GroupID       string           `json:"group_id"`
	OutgoingFacts []Fact           `json:"outgoing_facts"`
	IncomingFacts []Fact           `json:"incoming_facts"`
	Locations     []EntityLocation `json:"locations"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	type alias Entity
	var a alias
	extra, err := splitExtras(data, &a)
	if err != nil {
		return err
	}
	*e = Entity(a)
	e.Extra = extra
	return nil
}

// EntityListItem is the compact entity shape returned by list endpoints.
type EntityListItem struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Label   string  `json:"label"`
	SheetID *string `json:"sheet_id,omitempty"`
	BBox    *BBox   `json:"bbox,omitempty"`
}

// EntitiesService is the entity retrieval API for one project.
type EntitiesService struct {
	client    *Client
	projectID string
}

// EntityFilter narrows EntitiesService.List.
type EntityFilter struct {
	SheetID        string
	Type           string
	Family         string
	NormalizedSpec string
	RegionUUID     string
	RegionLabel    string
	NoteNumber     string
	Limit          int // default 200
}

// List returns entities matching the filter.
func (s *EntitiesService) List(ctx context.Context, filter EntityFilter) ([]EntityListItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	setIfPresent := func(key, value string) {
		if value != "" {
			query.Set(key, value)
		}
	}
	setIfPresent("sheet_id", filter.SheetID)
	setIfPresent("type", filter.Type)
	setIfPresent("family", filter.Family)
	setIfPresent("normalized_spec", filter.NormalizedSpec)
	setIfPresent("region_uuid", filter.RegionUUID)
	setIfPresent("region_label", filter.RegionLabel)
	setIfPresent("note_number", filter.NoteNumber)

	var resp struct {
		Entities []EntityListItem `json:"entities"`
	}
	path := "/projects/" + s.projectID + "/entities"
	if err := s.client.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return resp.Entities, nil
}

// GetEntityOptions configures EntitiesService.Get.
type GetEntityOptions struct {
	IncludeInvalid bool
	ExpandTarget   bool
}

// Get fetches one entity with full relation context.
func (s *EntitiesService) Get(ctx context.Context, entityID string, opts GetEntityOptions) (*Entity, error) {
	if err := requireField("entity id", entityID); err != nil {
		return nil, err
	}
	query := url.Values{
		"include_invalid": {strconv.FormatBool(opts.IncludeInvalid)},
		"expand_target":   {strconv.FormatBool(opts.ExpandTarget)},
	}
	var entity Entity
	path := "/projects/" + s.projectID + "/entities/" + entityID
	if err := s.client.get(ctx, path, query, &entity); err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return &entity, nil
}
