package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/code-review-trainer/internal/adapter/ai/stub"
	"github.com/fairyhunter13/code-review-trainer/internal/adapter/problembank"
	"github.com/fairyhunter13/code-review-trainer/internal/config"
	"github.com/fairyhunter13/code-review-trainer/internal/domain"
	"github.com/fairyhunter13/code-review-trainer/internal/usecase"
)

func newTestServer(t *testing.T, ai domain.AIClient) *Server {
	t.Helper()
	bank, err := problembank.New()
	require.NoError(t, err)
	return NewServer(config.Config{}, usecase.NewEvaluateService(ai), bank)
}

func decodeEnvelope(t *testing.T, body *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body.Body.Bytes(), &env))
	return env
}

func TestEvaluateHandler_HappyPath(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, stub.New())

	body := `{"problem_id":"cs_easy_001","user_review":"The null check on the user lookup was removed and will crash."}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.EvaluateHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var res domain.ReviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "cs_easy_001", res.ProblemID)
	assert.False(t, res.IsFallback)
	assert.NotEmpty(t, res.IssuesDetected)
	assert.Positive(t, res.PossibleScore)
}

func TestEvaluateHandler_NotAcceptable(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, stub.New())

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(`{}`))
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	srv.EvaluateHandler()(rec, req)

	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestEvaluateHandler_BadRequests(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, stub.New())

	tests := []struct {
		name string
		body string
	}{
		{"invalid_json", `{"problem_id": `},
		{"missing_problem_id", `{"user_review":"fine"}`},
		{"missing_review", `{"problem_id":"cs_easy_001"}`},
		{"review_too_long", `{"problem_id":"cs_easy_001","user_review":"` + strings.Repeat("a", 2501) + `"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.EvaluateHandler()(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, "INVALID_ARGUMENT", env.Error.Code)
		})
	}
}

func TestEvaluateHandler_UnknownProblem(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, stub.New())

	body := `{"problem_id":"nope","user_review":"looks fine to me"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.EvaluateHandler()(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestEvaluateHandler_NilAIReturnsFallback(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	body := `{"problem_id":"cs_easy_001","user_review":"ship it"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.EvaluateHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.ReviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.IsFallback)
	assert.Equal(t, "not configured", res.Error)
}

func TestProblemsHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/problems", nil)
	rec := httptest.NewRecorder()
	srv.ProblemsHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Problems []domain.Problem `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Problems)
}

func TestProblemHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	r := chi.NewRouter()
	r.Get("/v1/problems/{id}", srv.ProblemHandler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/problems/cs_easy_001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "cs_easy_001", p.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/problems/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRandomProblemHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.RandomProblemHandler()(rec, httptest.NewRequest(http.MethodGet, "/v1/problems/random", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.Patch)
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	ready := newTestServer(t, stub.New())
	rec := httptest.NewRecorder()
	ready.ReadyzHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := newTestServer(t, nil)
	rec = httptest.NewRecorder()
	degraded.ReadyzHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
