package struai

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// RelationshipsService is the relationship retrieval API for one project.
type RelationshipsService struct {
	client    *Client
	projectID string
}

// RelationshipFilter narrows RelationshipsService.List.
type RelationshipFilter struct {
	SheetID        string
	SourceID       string
	TargetID       string
	Type           string
	IncludeInvalid bool
	InvalidOnly    bool
	OrphanOnly     bool
	Limit          int // default 200
}

// List returns relationships matching the filter.
func (s *RelationshipsService) List(ctx context.Context, filter RelationshipFilter) ([]Fact, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query := url.Values{
		"limit":           {strconv.Itoa(limit)},
		"include_invalid": {strconv.FormatBool(filter.IncludeInvalid)},
		"invalid_only":    {strconv.FormatBool(filter.InvalidOnly)},
		"orphan_only":     {strconv.FormatBool(filter.OrphanOnly)},
	}
	if filter.SheetID != "" {
		query.Set("sheet_id", filter.SheetID)
	}
	if filter.SourceID != "" {
		query.Set("source_id", filter.SourceID)
	}
	if filter.TargetID != "" {
		query.Set("target_id", filter.TargetID)
	}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}

	var resp struct {
		Relationships []Fact `json:"relationships"`
	}
	path := "/projects/" + s.projectID + "/relationships"
	if err := s.client.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	return resp.Relationships, nil
}
