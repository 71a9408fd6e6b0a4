package struai

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ProjectsService is the top-level project API.
type ProjectsService struct {
	client *Client
}

// Create creates a project and returns a handle for it.
func (s *ProjectsService) Create(ctx context.Context, name string, description string) (*Project, error) {
	body := map[string]any{"name": name}
	if description != "" {
		body["description"] = description
	}
	var data ProjectData
	if err := s.client.post(ctx, "/projects", body, &data); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return newProject(s.client, data), nil
}

// List returns the projects available to the API key.
func (s *ProjectsService) List(ctx context.Context, limit int) ([]ProjectData, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Projects []ProjectData `json:"projects"`
	}
	if err := s.client.get(ctx, "/projects", query, &resp); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return resp.Projects, nil
}

// Get fetches one project and returns a handle for it.
func (s *ProjectsService) Get(ctx context.Context, projectID string) (*Project, error) {
	if err := requireField("project id", projectID); err != nil {
		return nil, err
	}
	var data ProjectData
	if err := s.client.get(ctx, "/projects/"+projectID, nil, &data); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return newProject(s.client, data), nil
}

// Open returns a handle for a known project id without a round trip.
func (s *ProjectsService) Open(projectID string) *Project {
	return newProject(s.client, ProjectData{ID: projectID})
}

// Delete deletes a project by id.
func (s *ProjectsService) Delete(ctx context.Context, projectID string) (*ProjectDeleteResult, error) {
	if err := requireField("project id", projectID); err != nil {
		return nil, err
	}
	var result ProjectDeleteResult
	if err := s.client.del(ctx, "/projects/"+projectID, &result); err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	return &result, nil
}

// Project is a handle on one project. Its sub-services are built once at
// construction rather than memoized on first access.
type Project struct {
	client *Client

	// Data is the server state the handle was opened with. It may be stale;
	// refetch via ProjectsService.Get when freshness matters.
	Data ProjectData

	Sheets        *SheetsService
	Entities      *EntitiesService
	Relationships *RelationshipsService
	DocQuery      *DocQueryService
}

func newProject(c *Client, data ProjectData) *Project {
	p := &Project{client: c, Data: data}
	p.Sheets = &SheetsService{client: c, projectID: data.ID}
	p.Entities = &EntitiesService{client: c, projectID: data.ID}
	p.Relationships = &RelationshipsService{client: c, projectID: data.ID}
	p.DocQuery = &DocQueryService{client: c, projectID: data.ID}
	return p
}

// ID returns the project identifier.
func (p *Project) ID() string { return p.Data.ID }

// Job re-attaches to a previously submitted job by id, e.g. one recorded
// from Ingest.JobIDs in an earlier process.
func (p *Project) Job(jobID string) *Job {
	return &Job{client: p.client, projectID: p.ID(), ID: jobID}
}

// Delete deletes this project.
func (p *Project) Delete(ctx context.Context) (*ProjectDeleteResult, error) {
	var result ProjectDeleteResult
	if err := p.client.del(ctx, "/projects/"+p.ID(), &result); err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	return &result, nil
}

// SearchOptions configures Project.Search.
type SearchOptions struct {
	Limit               int      // default 10
	Channels            []string // e.g. entities, facts, communities
	IncludeGraphContext bool
}

// Search runs ranked search over entities, facts, and communities.
func (p *Project) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if err := requireField("query", query); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	body := map[string]any{
		"query":                 query,
		"limit":                 limit,
		"include_graph_context": opts.IncludeGraphContext,
	}
	if opts.Channels != nil {
		body["channels"] = opts.Channels
	}
	var resp SearchResponse
	if err := p.client.post(ctx, "/projects/"+p.ID()+"/search", body, &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &resp, nil
}
