package struai

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SheetsService handles sheet ingestion and retrieval for one project.
type SheetsService struct {
	client    *Client
	projectID string
}

// AddSheetParams configures a sheet ingestion request. Provide exactly one
// source: Path, File, or FileHash (a PDF the server already has cached).
type AddSheetParams struct {
	// Path is a PDF on disk to upload.
	Path string
	// File is an in-memory PDF upload; FileName names it (default
	// document.pdf).
	File     io.Reader
	FileName string
	// FileHash references a server-cached PDF instead of uploading.
	FileHash string

	// Page selects pages to ingest: "12", "1,3,5-7", or "all". Default "1".
	Page string

	SourceDescription       string
	OnSheetExists           string // error|skip|rebuild
	CommunityUpdateMode     string // incremental|rebuild
	SemanticIndexUpdateMode string // incremental|rebuild
}

// Add queues sheet ingestion jobs. Single-page selectors yield
// Ingest.Single; multi-page selectors yield Ingest.Batch.
//
// When a file is supplied, its hash is checked against the server's PDF
// cache first; a cache hit skips the upload and submits the hash alone.
// The cache probe is advisory: any error there falls back to uploading.
func (s *SheetsService) Add(ctx context.Context, params AddSheetParams) (*Ingest, error) {
	hasFile := params.Path != "" || params.File != nil
	if params.Path != "" && params.File != nil {
		return nil, validationErrorf("provide Path or File, not both")
	}
	if !hasFile && params.FileHash == "" {
		return nil, validationErrorf("provide a file or FileHash")
	}
	if hasFile && params.FileHash != "" {
		return nil, validationErrorf("provide either a file or FileHash, not both")
	}

	page := strings.TrimSpace(params.Page)
	if page == "" {
		page = "1"
	}

	fileHash := params.FileHash
	uploadPath := params.Path
	uploadReader := params.File

	if hasFile && fileHash == "" {
		computed, err := s.hashSource(params)
		if err != nil {
			return nil, err
		}
		if computed != "" && s.isCached(ctx, computed) {
			fileHash = computed
			uploadPath = ""
			uploadReader = nil
		}
	}

	form := map[string]string{"page": page}
	if fileHash != "" {
		form["file_hash"] = fileHash
	}
	if params.SourceDescription != "" {
		form["source_description"] = params.SourceDescription
	}
	if params.OnSheetExists != "" {
		form["on_sheet_exists"] = params.OnSheetExists
	}
	if params.CommunityUpdateMode != "" {
		form["community_update_mode"] = params.CommunityUpdateMode
	}
	if params.SemanticIndexUpdateMode != "" {
		form["semantic_index_update_mode"] = params.SemanticIndexUpdateMode
	}

	var resp ingestResponse
	if uploadPath != "" {
		f, err := os.Open(uploadPath)
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		file := &upload{
			FieldName:   "file",
			FileName:    filepath.Base(uploadPath),
			ContentType: "application/pdf",
			Reader:      f,
		}
		err = s.client.postForm(ctx, s.path("/sheets"), form, file, &resp)
		if err != nil {
			return nil, fmt.Errorf("add sheet: %w", err)
		}
	} else {
		var file *upload
		if uploadReader != nil {
			name := params.FileName
			if name == "" {
				name = "document.pdf"
			}
			file = &upload{
				FieldName:   "file",
				FileName:    name,
				ContentType: "application/pdf",
				Reader:      uploadReader,
			}
		}
		if err := s.client.postForm(ctx, s.path("/sheets"), form, file, &resp); err != nil {
			return nil, fmt.Errorf("add sheet: %w", err)
		}
	}

	if len(resp.Jobs) == 0 {
		return nil, fmt.Errorf("add sheet: server returned no jobs")
	}
	jobs := make([]*Job, len(resp.Jobs))
	for i, desc := range resp.Jobs {
		jobs[i] = newJob(s.client, s.projectID, desc)
	}
	if len(jobs) == 1 {
		return &Ingest{Single: jobs[0]}, nil
	}
	return &Ingest{Batch: &JobBatch{Jobs: jobs}}, nil
}

// hashSource computes the upload's cache hash. Unseekable readers cannot be
// rehashed without consuming them, so they skip the cache probe.
func (s *SheetsService) hashSource(params AddSheetParams) (string, error) {
	if params.Path != "" {
		hash, err := ComputeFileHash(params.Path)
		if err != nil {
			return "", fmt.Errorf("hash upload: %w", err)
		}
		return hash, nil
	}
	if seeker, ok := params.File.(io.ReadSeeker); ok {
		hash, err := computeReaderHash(seeker)
		if err != nil {
			return "", fmt.Errorf("hash upload: %w", err)
		}
		return hash, nil
	}
	return "", nil
}

func (s *SheetsService) isCached(ctx context.Context, fileHash string) bool {
	status, err := s.client.Drawings.CheckCache(ctx, fileHash)
	if err != nil {
		return false
	}
	return status.Cached
}

// List returns the project's sheets.
func (s *SheetsService) List(ctx context.Context, limit int) ([]Sheet, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Sheets []Sheet `json:"sheets"`
	}
	if err := s.client.get(ctx, s.path("/sheets"), query, &resp); err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	return resp.Sheets, nil
}

// Get fetches one sheet's details.
func (s *SheetsService) Get(ctx context.Context, sheetID string) (*SheetDetail, error) {
	if err := requireField("sheet id", sheetID); err != nil {
		return nil, err
	}
	var detail SheetDetail
	if err := s.client.get(ctx, s.path("/sheets/"+sheetID), nil, &detail); err != nil {
		return nil, fmt.Errorf("get sheet: %w", err)
	}
	return &detail, nil
}

// Annotations fetches the raw detection annotations for one sheet.
func (s *SheetsService) Annotations(ctx context.Context, sheetID string) (*SheetAnnotations, error) {
	if err := requireField("sheet id", sheetID); err != nil {
		return nil, err
	}
	var annotations SheetAnnotations
	if err := s.client.get(ctx, s.path("/sheets/"+sheetID+"/annotations"), nil, &annotations); err != nil {
		return nil, fmt.Errorf("get sheet annotations: %w", err)
	}
	return &annotations, nil
}

// Delete removes a sheet and returns cleanup stats.
func (s *SheetsService) Delete(ctx context.Context, sheetID string) (*SheetDeleteResult, error) {
	if err := requireField("sheet id", sheetID); err != nil {
		return nil, err
	}
	var result SheetDeleteResult
	if err := s.client.del(ctx, s.path("/sheets/"+sheetID), &result); err != nil {
		return nil, fmt.Errorf("delete sheet: %w", err)
	}
	return &result, nil
}

func (s *SheetsService) path(suffix string) string {
	return "/projects/" + s.projectID + suffix
}
