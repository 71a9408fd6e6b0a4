package struai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	struai "github.com/struai/struai-go"
)

func TestNodeGetMissingIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/p1/docquery/node-get", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "018f3a", r.URL.Query().Get("uuid"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "command": "node-get", "found": false,
		})
	})

	c := newTestClient(t, mux)
	result, err := c.Projects.Open("p1").DocQuery.NodeGet(context.Background(), "018f3a")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.Node)
}

func TestNeighborsDirectionValidatedLocally(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := c.Projects.Open("p1").DocQuery.Neighbors(context.Background(), "018f3a", struai.NeighborsOptions{
		Direction: "sideways",
	})
	require.Error(t, err)
	assert.True(t, struai.IsValidation(err))
	assert.Equal(t, int64(0), calls.Load(), "invalid direction must not reach the server")
}

func TestNeighborsDefaults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/p1/docquery/neighbors", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "both", q.Get("direction"))
		assert.Equal(t, "25", q.Get("limit"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "command": "neighbors",
			"neighbors": []map[string]any{
				{"direction": "out", "neighbor_node": map[string]any{"uuid": "018f3b"}},
			},
			"count": 1,
		})
	})

	c := newTestClient(t, mux)
	result, err := c.Projects.Open("p1").DocQuery.Neighbors(context.Background(), "018f3a", struai.NeighborsOptions{})
	require.NoError(t, err)
	require.Len(t, result.Neighbors, 1)
	assert.Equal(t, "out", result.Neighbors[0].Direction)
}

func TestCypherDefaults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects/p1/docquery/cypher", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "MATCH (n:Entity) RETURN n.name", body["query"])
		assert.Equal(t, float64(100), body["max_rows"], "max_rows defaults to 100")
		_, hasParams := body["params"]
		assert.False(t, hasParams, "nil params are omitted")

		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "command": "cypher",
			"records":      []map[string]any{{"n.name": "W12x26"}},
			"record_count": 1,
			"truncated":    false,
		})
	})

	c := newTestClient(t, mux)
	result, err := c.Projects.Open("p1").DocQuery.Cypher(context.Background(), "MATCH (n:Entity) RETURN n.name", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordCount)
	assert.Equal(t, "W12x26", result.Records[0]["n.name"])
}

func TestDocSearchDefaults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/p1/docquery/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "entities", q.Get("index"))
		assert.Equal(t, "10", q.Get("limit"))
		score := 0.92
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true, "command": "search",
			"hits":  []map[string]any{{"node": map[string]any{"name": "detail 5"}, "score": score}},
			"count": 1,
		})
	})

	c := newTestClient(t, mux)
	result, err := c.Projects.Open("p1").DocQuery.Search(context.Background(), "detail", struai.DocSearchOptions{})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	require.NotNil(t, result.Hits[0].Score)
	assert.InDelta(t, 0.92, *result.Hits[0].Score, 1e-9)
}

func TestSheetEntitiesRequiresSheetID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := c.Projects.Open("p1").DocQuery.SheetEntities(context.Background(), "  ", struai.SheetEntitiesOptions{})
	require.Error(t, err)
	assert.True(t, struai.IsValidation(err))
}
