package struai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DrawingsService is the raw, single-page detection API. It has no graph
// side: one request in, one DrawingResult out.
type DrawingsService struct {
	client *Client
}

// TextSpan is text detected inside an annotation.
type TextSpan struct {
	ID   any    `json:"id,omitempty"`
	Text string `json:"text"`
}

// Circle is a circle in graph coordinate space.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// Line is a line segment.
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Leader is a leader annotation with an arrow and attached text.
type Leader struct {
	ID          string     `json:"id"`
	BBox        BBox       `json:"bbox"`
	ArrowTip    Point      `json:"arrow_tip"`
	TextBBox    BBox       `json:"text_bbox"`
	TextsInside []TextSpan `json:"texts_inside"`
}

// SectionTag is a section cut marker.
type SectionTag struct {
	ID          string     `json:"id"`
	BBox        BBox       `json:"bbox"`
	Circle      Circle     `json:"circle"`
	Direction   string     `json:"direction"` // left|right|up|down
	TextsInside []TextSpan `json:"texts_inside"`
	SectionLine *Line      `json:"section_line,omitempty"`
}

// DetailTag is a detail callout marker.
type DetailTag struct {
	ID            string     `json:"id"`
	BBox          BBox       `json:"bbox"`
	Circle        Circle     `json:"circle"`
	TextsInside   []TextSpan `json:"texts_inside"`
	HasDashedBBox bool       `json:"has_dashed_bbox"`
}

// RevisionTriangle is a revision marker.
type RevisionTriangle struct {
	ID       string  `json:"id"`
	BBox     BBox    `json:"bbox"`
	Vertices []Point `json:"vertices"`
	Text     string  `json:"text"`
}

// RevisionCloud is a revision cloud boundary.
type RevisionCloud struct {
	ID   string `json:"id"`
	BBox BBox   `json:"bbox"`
}

// Annotations collects every detection on one page.
type Annotations struct {
	Leaders           []Leader           `json:"leaders"`
	SectionTags       []SectionTag       `json:"section_tags"`
	DetailTags        []DetailTag        `json:"detail_tags"`
	RevisionTriangles []RevisionTriangle `json:"revision_triangles"`
	RevisionClouds    []RevisionCloud    `json:"revision_clouds"`
}

// TitleBlock is the detected title block, with the viewport excluding it.
type TitleBlock struct {
	Bounds   BBox `json:"bounds"`
	Viewport BBox `json:"viewport"`
}

// Dimensions is a page extent in graph coordinate space.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DrawingResult is the detection output for one page.
type DrawingResult struct {
	ID           string      `json:"id"`
	Page         int         `json:"page"`
	Dimensions   Dimensions  `json:"dimensions"`
	ProcessingMS int         `json:"processing_ms"`
	Annotations  Annotations `json:"annotations"`
	TitleBlock   *TitleBlock `json:"titleblock,omitempty"`
}

// SheetAnnotations is the stored annotation payload for an ingested sheet.
type SheetAnnotations struct {
	SheetID     string      `json:"sheet_id"`
	Annotations Annotations `json:"annotations"`
}

// DrawingCacheStatus reports whether the server already holds a PDF.
type DrawingCacheStatus struct {
	Cached   bool   `json:"cached"`
	FileHash string `json:"file_hash,omitempty"`
	Pages    int    `json:"pages,omitempty"`
}

// DrawingDeleteResult reports a drawing deletion.
type DrawingDeleteResult struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// AnalyzeParams configures DrawingsService.Analyze. Provide exactly one of
// Path, File, or FileHash.
type AnalyzeParams struct {
	Path     string
	File     io.Reader
	FileName string
	FileHash string
	Page     int // default 1
}

// Analyze runs detection on one page. Like sheet ingestion, uploads are
// skipped when the server's PDF cache already has the file.
func (s *DrawingsService) Analyze(ctx context.Context, params AnalyzeParams) (*DrawingResult, error) {
	hasFile := params.Path != "" || params.File != nil
	if !hasFile && params.FileHash == "" {
		return nil, validationErrorf("provide a file or FileHash")
	}
	if hasFile && params.FileHash != "" {
		return nil, validationErrorf("provide either a file or FileHash, not both")
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}

	fileHash := params.FileHash
	uploadPath := params.Path
	uploadReader := params.File
	if hasFile && fileHash == "" && params.Path != "" {
		computed, err := ComputeFileHash(params.Path)
		if err != nil {
			return nil, fmt.Errorf("hash upload: %w", err)
		}
		if status, err := s.CheckCache(ctx, computed); err == nil && status.Cached {
			fileHash = computed
			uploadPath = ""
		}
	}

	form := map[string]string{"page": fmt.Sprintf("%d", page)}
	if fileHash != "" {
		form["file_hash"] = fileHash
	}

	var file *upload
	if uploadPath != "" {
		f, err := os.Open(uploadPath)
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		file = &upload{
			FieldName:   "file",
			FileName:    filepath.Base(uploadPath),
			ContentType: "application/pdf",
			Reader:      f,
		}
	} else if uploadReader != nil {
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

	var result DrawingResult
	if err := s.client.postForm(ctx, "/drawings", form, file, &result); err != nil {
		return nil, fmt.Errorf("analyze drawing: %w", err)
	}
	return &result, nil
}

// CheckCache reports PDF cache status for a file hash. A 404 means the
// server has never seen the hash; that is folded into Cached=false rather
// than surfaced as an error.
func (s *DrawingsService) CheckCache(ctx context.Context, fileHash string) (*DrawingCacheStatus, error) {
	if err := requireField("file hash", fileHash); err != nil {
		return nil, err
	}
	var status DrawingCacheStatus
	if err := s.client.get(ctx, "/drawings/cache/"+fileHash, nil, &status); err != nil {
		if IsNotFound(err) {
			return &DrawingCacheStatus{Cached: false, FileHash: fileHash}, nil
		}
		return nil, fmt.Errorf("check cache: %w", err)
	}
	return &status, nil
}

// Get fetches a drawing by id.
func (s *DrawingsService) Get(ctx context.Context, drawingID string) (*DrawingResult, error) {
	if err := requireField("drawing id", drawingID); err != nil {
		return nil, err
	}
	var result DrawingResult
	if err := s.client.get(ctx, "/drawings/"+drawingID, nil, &result); err != nil {
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	return &result, nil
}

// Delete removes a drawing by id.
func (s *DrawingsService) Delete(ctx context.Context, drawingID string) (*DrawingDeleteResult, error) {
	if err := requireField("drawing id", drawingID); err != nil {
		return nil, err
	}
	var result DrawingDeleteResult
	if err := s.client.del(ctx, "/drawings/"+drawingID, &result); err != nil {
		return nil, fmt.Errorf("delete drawing: %w", err)
	}
	return &result, nil
}

// ComputeFileHash computes the server-compatible cache hash of a file: the
// first 16 hex characters of its SHA-256 digest.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16], nil
}

// computeReaderHash hashes a seekable reader and restores its position.
func computeReaderHash(r io.ReadSeeker) (string, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16], nil
}
