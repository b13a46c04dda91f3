package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq"
	"github.com/tracelab/entiq/pkg/config"
	"github.com/tracelab/entiq/pkg/memstore"
	"github.com/tracelab/entiq/pkg/server/dto"
	"github.com/tracelab/entiq/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.SimpleStuff()
	engine := entiq.New(store, store,
		entiq.WithSchema(store),
		entiq.WithAuthorizer(store),
		entiq.WithWorkers(1),
	)

	srv := New(testConfig(), engine)
	srv.Setup()
	return srv
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, Mode: gin.TestMode},
	}
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestSearchByCode(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/api/v1/search", map[string]any{
		"criteria": dto.Criteria{
			Kind: "SAMPLE",
			Clauses: []dto.Clause{
				{Predicate: &dto.Predicate{Target: "attribute", Name: "code", Operator: "equals", Value: "cp-test-1"}},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Roots, 1)
	assert.Equal(t, "CP-TEST-1", resp.Objects[resp.Roots[0]].Attributes["code"])
}

func TestSearchWithFetchGraph(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/api/v1/search", map[string]any{
		"criteria": dto.Criteria{
			Kind: "SAMPLE",
			Clauses: []dto.Clause{
				{Predicate: &dto.Predicate{Target: "attribute", Name: "code", Operator: "equals", Value: "CP-TEST-2"}},
			},
		},
		"fetch": dto.FetchGraph{
			Root: "sample",
			Graphs: map[string]dto.GraphSpec{
				"sample": {
					Kind: "SAMPLE",
					Relations: []dto.FetchRelation{
						{Name: "experiment", Graph: "experiment"},
					},
				},
				"experiment": {Kind: "EXPERIMENT", Properties: true},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Roots, 1)

	root := resp.Objects[resp.Roots[0]]
	require.Contains(t, root.Relations, "experiment")
	require.Len(t, root.Relations["experiment"], 1)
	exp := resp.Objects[root.Relations["experiment"][0]]
	assert.Equal(t, "EXP1", exp.Attributes["code"])
	assert.Equal(t, "A simple experiment", exp.Properties["description"])
}

func TestGlobalSearch(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/api/v1/search/global", map[string]any{
		"criteria": dto.Criteria{
			Kind: "SAMPLE",
			Clauses: []dto.Clause{
				{Predicate: &dto.Predicate{Target: "text", Operator: "contains", Value: "simple stuff"}},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.TotalCount)
	assert.Len(t, resp.Roots, 7)
}

func TestGetObjects(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/api/v1/objects", map[string]any{
		"refs": []string{"SAMPLE:200902091219327-1025", "SAMPLE:no-such"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.GetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Found, 1)
	idx, ok := resp.Found["SAMPLE:200902091219327-1025"]
	require.True(t, ok)
	assert.Equal(t, "CP-TEST-1", resp.Objects[idx].Attributes["code"])
}

func TestGetObjectsDeniedForHiddenEntity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := memstore.SimpleStuff()
	store.Hide(types.EntityRef{Kind: types.KindSample, ID: "200902091219327-1025"})
	engine := entiq.New(store, store,
		entiq.WithSchema(store),
		entiq.WithAuthorizer(store),
		entiq.WithWorkers(1),
	)
	srv := New(testConfig(), engine)
	srv.Setup()

	w := postJSON(t, srv, "/api/v1/objects", map[string]any{
		"refs": []string{"SAMPLE:200902091219327-1025"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestSearchRejectsInvalidCriteria(t *testing.T) {
	srv := newTestServer(t)

	// size is declared INTEGER; text-only operators on it are a client error.
	w := postJSON(t, srv, "/api/v1/search", map[string]any{
		"criteria": dto.Criteria{
			Kind: "SAMPLE",
			Clauses: []dto.Clause{
				{Predicate: &dto.Predicate{Target: "property", Name: "size", Operator: "startsWith", Value: "1"}},
			},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}
