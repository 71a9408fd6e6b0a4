package struai_test

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	struai "github.com/struai/struai-go"
)

func writeTempPDF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAddSheetValidation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid params")
	}))
	sheets := c.Projects.Open("p1").Sheets
	ctx := context.Background()

	tests := []struct {
		name   string
		params struai.AddSheetParams
	}{
		{"no source", struai.AddSheetParams{}},
		{"path and reader", struai.AddSheetParams{Path: "a.pdf", File: bytes.NewReader(nil)}},
		{"path and hash", struai.AddSheetParams{Path: "a.pdf", FileHash: "abc"}},
		{"reader and hash", struai.AddSheetParams{File: bytes.NewReader(nil), FileHash: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sheets.Add(ctx, tt.params)
			require.Error(t, err)
			assert.True(t, struai.IsValidation(err))
		})
	}
}

func TestAddSheetUploadsSingleJob(t *testing.T) {
	path := writeTempPDF(t, "%PDF-1.4 fake")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/drawings/cache/{hash}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"message": "unknown hash"},
		})
	})
	var gotPage, gotFileName string
	mux.HandleFunc("POST /v1/projects/p1/sheets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPage = r.FormValue("page")
		if files := r.MultipartForm.File["file"]; len(files) == 1 {
			gotFileName = files[0].Filename
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"jobs": []map[string]any{{"job_id": "j1", "page": 1}},
		})
	})

	c := newTestClient(t, mux)
	ingest, err := c.Projects.Open("p1").Sheets.Add(context.Background(), struai.AddSheetParams{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "1", gotPage, "page defaults to 1")
	assert.Equal(t, "plan.pdf", gotFileName)
	require.NotNil(t, ingest.Single)
	assert.Nil(t, ingest.Batch)
	assert.Equal(t, []string{"j1"}, ingest.JobIDs())
}

func TestAddSheetCacheHitSkipsUpload(t *testing.T) {
	path := writeTempPDF(t, "cached content")
	wantHash, err := struai.ComputeFileHash(path)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/drawings/cache/{hash}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantHash, r.PathValue("hash"))
		writeJSON(t, w, http.StatusOK, map[string]any{"cached": true, "file_hash": wantHash})
	})
	mux.HandleFunc("POST /v1/projects/p1/sheets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, wantHash, r.FormValue("file_hash"))
		assert.Empty(t, r.MultipartForm.File["file"], "cache hit must not upload the file")
		writeJSON(t, w, http.StatusOK, map[string]any{
			"jobs": []map[string]any{{"job_id": "j1", "page": 1}},
		})
	})

	c := newTestClient(t, mux)
	ingest, err := c.Projects.Open("p1").Sheets.Add(context.Background(), struai.AddSheetParams{Path: path})
	require.NoError(t, err)
	require.NotNil(t, ingest.Single)
}

func TestAddSheetMultiPageBatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects/p1/sheets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2,3,4", r.FormValue("page"))
		assert.Equal(t, "deadbeef00000000", r.FormValue("file_hash"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"jobs": []map[string]any{
				{"job_id": "j1", "page": 2},
				{"job_id": "j2", "page": 3},
				{"job_id": "j3", "page": 4},
			},
		})
	})

	c := newTestClient(t, mux)
	ingest, err := c.Projects.Open("p1").Sheets.Add(context.Background(), struai.AddSheetParams{
		FileHash: "deadbeef00000000",
		Page:     "2,3,4",
	})
	require.NoError(t, err)

	assert.Nil(t, ingest.Single)
	require.NotNil(t, ingest.Batch)
	assert.Equal(t, []string{"j1", "j2", "j3"}, ingest.JobIDs())
	require.NotNil(t, ingest.Batch.Jobs[1].Page)
	assert.Equal(t, 3, *ingest.Batch.Jobs[1].Page)
}

func TestComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	hash, err := struai.ComputeFileHash(path)
	require.NoError(t, err)
	// First 16 hex chars of sha256("hello").
	assert.Equal(t, "2cf24dba5fb0a30e", hash)
	assert.Len(t, hash, 16)
}
