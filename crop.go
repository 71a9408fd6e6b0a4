package struai

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	_ "image/jpeg"
)

// Scale modes reported in CropResult.
const (
	ScaleModeIdentity = "identity"
	ScaleModeManual   = "manual"
	ScaleModeAuto     = "auto_page_extents"
)

// CropParams controls a single crop. Exactly one of BBox or UUID selects
// the region. Output is required. The raster source is resolved from
// Image, or discovered in the page cache by PageHash (in UUID mode the
// node's own page_hash fills in when neither is given).
type CropParams struct {
	// BBox is a region in drawing coordinates: [x_min, y_min, x_max, y_max].
	BBox *BBox
	// UUID selects a graph node whose stored bounding box is cropped.
	UUID string

	// Output is the PNG path to write. Parent directories are created.
	Output string

	// Image is an explicit raster path. When empty, the page cache is
	// probed for <page_hash>.png then <page_hash>.jpg.
	Image    string
	PageHash string
	// CacheDir overrides the client's page cache directory for this call.
	CacheDir string

	// Pad expands the final pixel box on every side.
	Pad int
	// Clamp restricts the pixel box to the image bounds. Nil means on.
	Clamp *bool

	// At most one scale source may be set: Scale (uniform), ScaleX/ScaleY
	// (per axis, absent axis = 1.0), or AutoScale (derive the transform
	// from the page's node extents).
	Scale     float64
	ScaleX    float64
	ScaleY    float64
	AutoScale bool
}

// CropResult records what a crop did: where the region came from, the
// transform applied, the pixel box written, and any advisory warnings.
type CropResult struct {
	Source       string    `json:"source"`
	UUID         string    `json:"uuid,omitempty"`
	OutputPath   string    `json:"output_path"`
	BytesWritten int64     `json:"bytes_written"`
	ContentType  string    `json:"content_type"`
	PixelBox     [4]int    `json:"pixel_box"`
	ImageWidth   int       `json:"image_width"`
	ImageHeight  int       `json:"image_height"`
	ScaleMode    string    `json:"scale_mode"`
	ScaleX       float64   `json:"scale_x"`
	ScaleY       float64   `json:"scale_y"`
	OffsetX      float64   `json:"offset_x"`
	OffsetY      float64   `json:"offset_y"`
	Warnings     []Warning `json:"warnings"`
}

// cropTransform maps drawing coordinates to pixels:
// px = (x + offsetX) * scaleX.
type cropTransform struct {
	mode             string
	scaleX, scaleY   float64
	offsetX, offsetY float64
}

func identityTransform() cropTransform {
	return cropTransform{mode: ScaleModeIdentity, scaleX: 1, scaleY: 1}
}

const pageExtentsQuery = `
MATCH (n:Entity {project_id: $project_id, page_hash: $page_hash})
WHERE n.bbox_min IS NOT NULL AND n.bbox_max IS NOT NULL
RETURN min(n.bbox_min.x) AS min_x, min(n.bbox_min.y) AS min_y,
       max(n.bbox_max.x) AS max_x, max(n.bbox_max.y) AS max_y,
       count(n) AS node_count`

// Crop extracts a region of a page raster and writes it as PNG.
//
// All parameter validation happens before any network or file access. In
// UUID mode the node is fetched, its stored bounding box becomes the
// region, and its page_hash locates the raster. When no scale source is
// given in UUID mode, an auto-scale is attempted and falls back to
// identity with a warning if the page extents cannot be derived; an
// explicit AutoScale failure is a hard error. An empty or inverted pixel
// box after clamping is a hard error and no file is written.
func (s *DocQueryService) Crop(ctx context.Context, params CropParams) (*CropResult, error) {
	if (params.BBox == nil) == (params.UUID == "") {
		return nil, validationErrorf("exactly one of bbox or uuid must be set")
	}
	if err := requireField("output path", params.Output); err != nil {
		return nil, err
	}
	scaleSources := 0
	if params.Scale != 0 {
		scaleSources++
	}
	if params.ScaleX != 0 || params.ScaleY != 0 {
		scaleSources++
	}
	if params.AutoScale {
		scaleSources++
	}
	if scaleSources > 1 {
		return nil, validationErrorf("scale, scale_x/scale_y, and auto_scale are mutually exclusive")
	}

	result := &CropResult{
		OutputPath:  params.Output,
		ContentType: "image/png",
		Warnings:    []Warning{},
	}

	var box BBox
	pageHash := params.PageHash
	if params.BBox != nil {
		result.Source = "bbox"
		box = *params.BBox
	} else {
		result.Source = "uuid"
		result.UUID = params.UUID
		nodeRes, err := s.NodeGet(ctx, params.UUID)
		if err != nil {
			return nil, err
		}
		if !nodeRes.Found || nodeRes.Node == nil {
			return nil, validationErrorf("no node found with uuid %s", params.UUID)
		}
		box, err = nodeBBox(nodeRes.Node)
		if err != nil {
			return nil, err
		}
		if pageHash == "" {
			pageHash, _ = nodeRes.Node.StringProp("page_hash")
		}
	}

	imagePath := params.Image
	if imagePath == "" {
		if pageHash == "" {
			return nil, validationErrorf("no image path and no page hash to locate a cached raster")
		}
		found, err := s.findCachedPage(params.CacheDir, pageHash)
		if err != nil {
			return nil, err
		}
		imagePath = found
	}

	src, imgW, imgH, err := decodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	result.ImageWidth = imgW
	result.ImageHeight = imgH

	transform := identityTransform()
	switch {
	case params.Scale != 0:
		transform = cropTransform{mode: ScaleModeManual, scaleX: params.Scale, scaleY: params.Scale}
	case params.ScaleX != 0 || params.ScaleY != 0:
		sx, sy := params.ScaleX, params.ScaleY
		if sx == 0 {
			sx = 1
		}
		if sy == 0 {
			sy = 1
		}
		transform = cropTransform{mode: ScaleModeManual, scaleX: sx, scaleY: sy}
	case params.AutoScale:
		transform, err = s.autoScale(ctx, pageHash, imgW, imgH)
		if err != nil {
			return nil, err
		}
	case result.Source == "uuid":
		// Stored boxes in UUID mode are usually in drawing units, so try
		// to derive the page transform; identity is the safe fallback.
		transform, err = s.autoScale(ctx, pageHash, imgW, imgH)
		if err != nil {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnAutoScaleUnavailable,
				Message: fmt.Sprintf("auto-scale unavailable, using identity transform: %v", err),
			})
			transform = identityTransform()
		}
	}
	result.ScaleMode = transform.mode
	result.ScaleX = transform.scaleX
	result.ScaleY = transform.scaleY
	result.OffsetX = transform.offsetX
	result.OffsetY = transform.offsetY

	clampOn := params.Clamp == nil || *params.Clamp
	px0 := int(math.Floor((box[0] + transform.offsetX) * transform.scaleX))
	py0 := int(math.Floor((box[1] + transform.offsetY) * transform.scaleY))
	px1 := int(math.Ceil((box[2] + transform.offsetX) * transform.scaleX))
	py1 := int(math.Ceil((box[3] + transform.offsetY) * transform.scaleY))
	px0 -= params.Pad
	py0 -= params.Pad
	px1 += params.Pad
	py1 += params.Pad
	if clampOn {
		px0 = clamp(px0, 0, imgW)
		py0 = clamp(py0, 0, imgH)
		px1 = clamp(px1, 0, imgW)
		py1 = clamp(py1, 0, imgH)
	}
	if px1 <= px0 || py1 <= py0 {
		return nil, validationErrorf("crop region [%d %d %d %d] is empty after transform", px0, py0, px1, py1)
	}
	result.PixelBox = [4]int{px0, py0, px1, py1}

	out := image.NewRGBA(image.Rect(0, 0, px1-px0, py1-py0))
	draw.Draw(out, out.Bounds(), src, image.Pt(px0, py0), draw.Src)

	n, err := writePNG(params.Output, out)
	if err != nil {
		return nil, err
	}
	result.BytesWritten = n
	return result, nil
}

// nodeBBox reads a node's stored bounding box. bbox_min/bbox_max point
// properties take precedence over the legacy 4-number bbox list.
func nodeBBox(node *GraphNode) (BBox, error) {
	minPt, okMin := propPoint(node.Properties, "bbox_min")
	maxPt, okMax := propPoint(node.Properties, "bbox_max")
	if okMin && okMax {
		return BBox{minPt[0], minPt[1], maxPt[0], maxPt[1]}, nil
	}
	if raw, ok := node.Properties["bbox"].([]any); ok && len(raw) == 4 {
		var box BBox
		for i, item := range raw {
			f, ok := item.(float64)
			if !ok {
				return BBox{}, validationErrorf("node bbox element %d is not a number", i)
			}
			box[i] = f
		}
		return box, nil
	}
	return BBox{}, validationErrorf("node has no bbox_min/bbox_max or bbox properties")
}

// propPoint reads a graph point property. The service stores points as
// {"x": ..., "y": ...} objects; a 2-element array is tolerated for older
// data.
func propPoint(props map[string]any, key string) (Point, bool) {
	switch raw := props[key].(type) {
	case map[string]any:
		x, okX := raw["x"].(float64)
		y, okY := raw["y"].(float64)
		if !okX || !okY {
			return Point{}, false
		}
		return Point{x, y}, true
	case []any:
		if len(raw) != 2 {
			return Point{}, false
		}
		var pt Point
		for i, item := range raw {
			f, ok := item.(float64)
			if !ok {
				return Point{}, false
			}
			pt[i] = f
		}
		return pt, true
	default:
		return Point{}, false
	}
}

// findCachedPage probes the page cache for <hash>.png then <hash>.jpg.
func (s *DocQueryService) findCachedPage(cacheDir, pageHash string) (string, error) {
	if cacheDir == "" {
		cacheDir = s.client.pageCacheDir
	}
	if cacheDir == "" {
		return "", validationErrorf("no page cache directory configured")
	}
	for _, ext := range []string{".png", ".jpg"} {
		candidate := filepath.Join(cacheDir, pageHash+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no cached raster for page %s under %s", pageHash, cacheDir)
}

// autoScale derives the drawing-to-pixel transform from the extents of
// all nodes sharing the page hash.
func (s *DocQueryService) autoScale(ctx context.Context, pageHash string, imgW, imgH int) (cropTransform, error) {
	if pageHash == "" {
		return cropTransform{}, fmt.Errorf("auto-scale requires a page hash")
	}
	res, err := s.Cypher(ctx, pageExtentsQuery, map[string]any{"page_hash": pageHash}, 1)
	if err != nil {
		return cropTransform{}, fmt.Errorf("auto-scale: %w", err)
	}
	if len(res.Records) == 0 {
		return cropTransform{}, fmt.Errorf("auto-scale: no extents for page %s", pageHash)
	}
	rec := res.Records[0]
	if count, ok := recInt(rec, "node_count"); !ok || count == 0 {
		return cropTransform{}, fmt.Errorf("auto-scale: no nodes with bounding boxes on page %s", pageHash)
	}
	minX, okA := recFloat(rec, "min_x")
	minY, okB := recFloat(rec, "min_y")
	maxX, okC := recFloat(rec, "max_x")
	maxY, okD := recFloat(rec, "max_y")
	if !okA || !okB || !okC || !okD {
		return cropTransform{}, fmt.Errorf("auto-scale: incomplete extents for page %s", pageHash)
	}
	if maxX <= minX || maxY <= minY {
		return cropTransform{}, fmt.Errorf("auto-scale: degenerate extents for page %s", pageHash)
	}
	return cropTransform{
		mode:    ScaleModeAuto,
		scaleX:  float64(imgW) / (maxX - minX),
		scaleY:  float64(imgH) / (maxY - minY),
		offsetX: -minX,
		offsetY: -minY,
	}, nil
}

func decodeImage(path string) (image.Image, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image %s: %w", path, err)
	}
	bounds := img.Bounds()
	return img, bounds.Dx(), bounds.Dy(), nil
}

func writePNG(path string, img image.Image) (int64, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return 0, fmt.Errorf("encode png: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close output: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func recFloat(rec map[string]any, key string) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	switch v := rec[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
