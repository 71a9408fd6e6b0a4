package struai

// ConnectedEntity is a neighbor included in graph context.
type ConnectedEntity struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	SheetID     *string `json:"sheet_id,omitempty"`
	BBox        *BBox   `json:"bbox,omitempty"`
}

// RelationshipSummary is a relationship included in graph context.
type RelationshipSummary struct {
	Type *string `json:"type,omitempty"`
	Fact *string `json:"fact,omitempty"`
}

// GraphContext is the neighborhood attached to an entity search hit.
type GraphContext struct {
	ConnectedEntities []ConnectedEntity     `json:"connected_entities"`
	Relationships     []RelationshipSummary `json:"relationships"`
}

// EntitySearchHit is an entity hit from project search.
type EntitySearchHit struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Label        *string        `json:"label,omitempty"`
	Description  *string        `json:"description,omitempty"`
	SheetID      *string        `json:"sheet_id,omitempty"`
	BBox         *BBox          `json:"bbox,omitempty"`
	Score        float64        `json:"score"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	GraphContext *GraphContext  `json:"graph_context,omitempty"`
}

// FactSearchHit is a fact hit from project search.
type FactSearchHit struct {
	ID        string  `json:"id"`
	Predicate *string `json:"predicate,omitempty"`
	Source    *string `json:"source,omitempty"`
	Target    *string `json:"target,omitempty"`
	FactText  *string `json:"fact_text,omitempty"`
	SheetID   *string `json:"sheet_id,omitempty"`
	Score     float64 `json:"score"`
}

// CommunitySearchHit is a community hit from project search.
type CommunitySearchHit struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	MemberCount *int    `json:"member_count,omitempty"`
	Score       float64 `json:"score"`
}

// SearchResponse is the payload of POST /projects/{id}/search.
type SearchResponse struct {
	Entities    []EntitySearchHit    `json:"entities"`
	Facts       []FactSearchHit      `json:"facts"`
	Communities []CommunitySearchHit `json:"communities"`
	SearchMS    int                  `json:"search_ms"`
}
