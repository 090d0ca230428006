package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	opts := horn.Options{}
	if withStore {
		opts.Store = memstore.New()
	}
	kb := horn.New(opts)
	t.Cleanup(func() { kb.Close() })
	return NewServer(kb, nil)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := setupServer(t, false)
	w := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatementsAndAsk(t *testing.T) {
	srv := setupServer(t, true)

	w := do(t, srv, http.MethodPost, "/v1/statements",
		`{"statements": ["Likes(John,Mary)", "Likes(x,y) => Happy(x)"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"added": 2}`, w.Body.String())

	w = do(t, srv, http.MethodPost, "/v1/ask", `{"queries": ["Happy(John)", "Happy(Mary)"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RunID   string           `json:"run_id"`
		Answers []answerResponse `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Answers, 2)
	assert.Equal(t, "Happy(John)", resp.Answers[0].Query)
	assert.True(t, resp.Answers[0].Result)
	assert.False(t, resp.Answers[1].Result)

	w = do(t, srv, http.MethodGet, "/v1/runs/"+resp.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var run runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, resp.RunID, run.ID)
	assert.Equal(t, []string{"Happy(John)"}, run.Derived)

	w = do(t, srv, http.MethodGet, "/v1/runs?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []runResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Runs, 1)

	w = do(t, srv, http.MethodGet, "/v1/predicates", "")
	assert.JSONEq(t, `{"predicates": ["Happy", "Likes"]}`, w.Body.String())
}

func TestBadStatement(t *testing.T) {
	srv := setupServer(t, false)
	w := do(t, srv, http.MethodPost, "/v1/statements", `{"statements": ["Likes(John,"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/v1/statements", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBadQuery(t *testing.T) {
	srv := setupServer(t, false)
	w := do(t, srv, http.MethodPost, "/v1/ask", `{"queries": ["A => B"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunNotFound(t *testing.T) {
	srv := setupServer(t, true)
	w := do(t, srv, http.MethodGet, "/v1/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunsWithoutStore(t *testing.T) {
	srv := setupServer(t, false)
	w := do(t, srv, http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, srv, http.MethodGet, "/v1/runs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
