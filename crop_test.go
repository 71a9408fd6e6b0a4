package struai_test

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	struai "github.com/struai/struai-go"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func decodePNGSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCropBBoxIdentity(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "page.png")
	writeTestPNG(t, imagePath, 100, 80)
	output := filepath.Join(dir, "out", "crop.png")

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("bbox crop with explicit image needs no server")
	}))

	box := struai.BBox{10, 20, 30, 45}
	result, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		BBox:   &box,
		Image:  imagePath,
		Output: output,
	})
	require.NoError(t, err)

	assert.Equal(t, "bbox", result.Source)
	assert.Equal(t, struai.ScaleModeIdentity, result.ScaleMode)
	assert.Equal(t, [4]int{10, 20, 30, 45}, result.PixelBox)
	assert.Equal(t, 100, result.ImageWidth)
	assert.Equal(t, 80, result.ImageHeight)
	assert.Positive(t, result.BytesWritten)

	w, h := decodePNGSize(t, output)
	assert.Equal(t, 20, w)
	assert.Equal(t, 25, h)
}

func TestCropUUIDAutoScale(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "abc123.png"), 400, 200)
	output := filepath.Join(dir, "crop.png")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/p1/docquery/node-get", func(w http.ResponseWriter, r *http.Request) {
		// Points come over the wire as {"x", "y"} objects.
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "command": "node-get", "found": true,
			"node": map[string]any{
				"labels": []string{"Entity"},
				"properties": map[string]any{
					"uuid":      "018f3a",
					"page_hash": "abc123",
					"bbox_min":  map[string]any{"x": 10, "y": 20},
					"bbox_max":  map[string]any{"x": 110, "y": 70},
				},
			},
		})
	})
	mux.HandleFunc("POST /v1/projects/p1/docquery/cypher", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		query, _ := body["query"].(string)
		// Points are maps in the graph, so extents aggregate over .x/.y.
		assert.Contains(t, query, "n.bbox_min.x")
		assert.Contains(t, query, "n.bbox_max.y")
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "command": "cypher",
			"records": []map[string]any{{
				"min_x": 0.0, "min_y": 0.0, "max_x": 200.0, "max_y": 100.0, "node_count": 5,
			}},
			"record_count": 1,
		})
	})

	c := newTestClient(t, mux, struai.WithPageCacheDir(dir))
	result, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		UUID:   "018f3a",
		Output: output,
	})
	require.NoError(t, err)

	assert.Equal(t, "uuid", result.Source)
	assert.Equal(t, struai.ScaleModeAuto, result.ScaleMode)
	assert.InDelta(t, 2.0, result.ScaleX, 1e-9)
	assert.InDelta(t, 2.0, result.ScaleY, 1e-9)
	assert.Equal(t, [4]int{20, 40, 220, 140}, result.PixelBox)
	assert.Empty(t, result.Warnings)

	w, h := decodePNGSize(t, output)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
}

func TestCropUUIDArrayPointsTolerated(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "abc123.png"), 100, 80)
	output := filepath.Join(dir, "crop.png")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/p1/docquery/node-get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "found": true,
			"node": map[string]any{
				"properties": map[string]any{
					"page_hash": "abc123",
					"bbox_min":  []float64{10, 20},
					"bbox_max":  []float64{30, 45},
				},
			},
		})
	})
	mux.HandleFunc("POST /v1/projects/p1/docquery/cypher", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "records": []map[string]any{{"node_count": 0}}, "record_count": 1,
		})
	})

	c := newTestClient(t, mux, struai.WithPageCacheDir(dir))
	result, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		UUID:   "018f3a",
		Output: output,
	})
	require.NoError(t, err)
	assert.Equal(t, [4]int{10, 20, 30, 45}, result.PixelBox)
}

func TestCropUUIDAutoScaleFallsBackToIdentity(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "abc123.png"), 100, 80)
	output := filepath.Join(dir, "crop.png")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/p1/docquery/node-get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "found": true,
			"node": map[string]any{
				"properties": map[string]any{
					"page_hash": "abc123",
					"bbox":      []float64{10, 20, 30, 45}, // legacy flat box
				},
			},
		})
	})
	mux.HandleFunc("POST /v1/projects/p1/docquery/cypher", func(w http.ResponseWriter, r *http.Request) {
		// No nodes with boxes on this page: implicit auto-scale cannot work.
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "records": []map[string]any{{"node_count": 0}}, "record_count": 1,
		})
	})

	c := newTestClient(t, mux, struai.WithPageCacheDir(dir))
	result, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		UUID:   "018f3a",
		Output: output,
	})
	require.NoError(t, err, "implicit auto-scale failure falls back, not fails")

	assert.Equal(t, struai.ScaleModeIdentity, result.ScaleMode)
	assert.Equal(t, [4]int{10, 20, 30, 45}, result.PixelBox)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, struai.WarnAutoScaleUnavailable, result.Warnings[0].Code)
}

func TestCropExplicitAutoScaleFailureIsHard(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "page.png")
	writeTestPNG(t, imagePath, 100, 80)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "records": []map[string]any{}, "record_count": 0,
		})
	}))

	box := struai.BBox{10, 20, 30, 45}
	_, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		BBox:      &box,
		Image:     imagePath,
		PageHash:  "abc123",
		Output:    filepath.Join(dir, "crop.png"),
		AutoScale: true,
	})
	require.Error(t, err)
}

func TestCropValidation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid params")
	}))
	dq := c.Projects.Open("p1").DocQuery
	ctx := context.Background()
	box := struai.BBox{0, 0, 10, 10}

	tests := []struct {
		name   string
		params struai.CropParams
	}{
		{"neither bbox nor uuid", struai.CropParams{Output: "out.png"}},
		{"both bbox and uuid", struai.CropParams{BBox: &box, UUID: "018f3a", Output: "out.png"}},
		{"missing output", struai.CropParams{BBox: &box}},
		{"scale and auto-scale", struai.CropParams{BBox: &box, Output: "out.png", Scale: 2, AutoScale: true}},
		{"scale and per-axis", struai.CropParams{BBox: &box, Output: "out.png", Scale: 2, ScaleX: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dq.Crop(ctx, tt.params)
			require.Error(t, err)
			assert.True(t, struai.IsValidation(err))
		})
	}
}

func TestCropEmptyBoxWritesNothing(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "page.png")
	writeTestPNG(t, imagePath, 100, 80)
	output := filepath.Join(dir, "crop.png")

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	// Entirely right of the image; clamping collapses it to nothing.
	box := struai.BBox{500, 10, 600, 40}
	_, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		BBox:   &box,
		Image:  imagePath,
		Output: output,
	})
	require.Error(t, err)
	assert.True(t, struai.IsValidation(err))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no output file on empty crop")
}

func TestCropPadAndClamp(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "page.png")
	writeTestPNG(t, imagePath, 100, 80)
	output := filepath.Join(dir, "crop.png")

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	// Padding pushes the box past the top-left corner; clamping holds it
	// inside the image.
	box := struai.BBox{5, 5, 30, 30}
	result, err := c.Projects.Open("p1").DocQuery.Crop(context.Background(), struai.CropParams{
		BBox:   &box,
		Image:  imagePath,
		Output: output,
		Pad:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, [4]int{0, 0, 40, 40}, result.PixelBox)

	w, h := decodePNGSize(t, output)
	assert.Equal(t, 40, w)
	assert.Equal(t, 40, h)
}
