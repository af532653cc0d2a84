package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/code-review-trainer/internal/adapter/observability"
	"github.com/fairyhunter13/code-review-trainer/internal/config"
	"github.com/fairyhunter13/code-review-trainer/internal/domain"
	"github.com/fairyhunter13/code-review-trainer/internal/usecase"
	"github.com/fairyhunter13/code-review-trainer/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg      config.Config
	Evaluate usecase.EvaluateService
	Bank     domain.ProblemBank
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, eval usecase.EvaluateService, bank domain.ProblemBank) *Server {
	return &Server{Cfg: cfg, Evaluate: eval, Bank: bank}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func acceptsJSON(r *http.Request) bool {
	a := r.Header.Get("Accept")
	return a == "" || a == "*/*" || strings.Contains(a, "application/json")
}

// EvaluateHandler scores a submitted review against its problem's patch.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": r.Header.Get("Accept")}}})
			return
		}
		// Cap body size to prevent abuse
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			ProblemID             string `json:"problem_id" validate:"required"`
			UserReview            string `json:"user_review" validate:"required,max=2500"`
			UserShippabilityClaim *bool  `json:"user_shippability_claim"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}

		problem, err := s.Bank.Get(r.Context(), req.ProblemID)
		if err != nil {
			writeError(w, r, err, map[string]string{"problem_id": req.ProblemID})
			return
		}

		result, err := s.Evaluate.Evaluate(r.Context(), domain.ReviewRequest{
			ProblemID:             problem.ID,
			Code:                  problem.Patch,
			UserReview:            textx.SanitizeText(req.UserReview),
			PatchPurpose:          problem.Purpose,
			UserShippabilityClaim: req.UserShippabilityClaim,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// Caller is gone; nothing useful to write.
				LoggerFrom(r).Info("evaluation canceled by caller")
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				writeError(w, r, fmt.Errorf("%w: evaluation deadline exceeded", domain.ErrUpstreamTimeout), nil)
				return
			}
			writeError(w, r, err, nil)
			return
		}

		recordEvaluationMetrics(result)
		writeJSON(w, http.StatusOK, result)
	}
}

func recordEvaluationMetrics(res domain.ReviewResult) {
	if res.IsFallback {
		observability.EvaluationsTotal.WithLabelValues("fallback").Inc()
		reason := res.Error
		if i := strings.Index(reason, ":"); i >= 0 {
			reason = reason[:i]
		}
		observability.FallbacksTotal.WithLabelValues(reason).Inc()
		return
	}
	observability.EvaluationsTotal.WithLabelValues("ok").Inc()
	if res.PossibleScore > 0 {
		observability.ScoreRatioHistogram.Observe(float64(res.UserScore) / float64(res.PossibleScore))
	}
}

// ProblemsHandler lists the problem catalog.
func (s *Server) ProblemsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"problems": s.Bank.List(r.Context())})
	}
}

// RandomProblemHandler picks a catalog problem for a new training round.
func (s *Server) RandomProblemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Problem selection needs no cryptographic randomness.
		problem, err := s.Bank.Random(r.Context(), rng)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, problem)
	}
}

// ProblemHandler returns a single problem by id.
func (s *Server) ProblemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		problem, err := s.Bank.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, map[string]string{"problem_id": id})
			return
		}
		writeJSON(w, http.StatusOK, problem)
	}
}

// ReadyzHandler reports readiness of the evaluation dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		checks := []map[string]any{
			{"name": "problem_bank", "ok": s.Bank != nil},
			{"name": "ai", "ok": s.Evaluate.AI != nil},
		}
		ok := true
		for _, c := range checks {
			if v, _ := c["ok"].(bool); !v {
				ok = false
			}
		}
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
			slog.Warn("readiness degraded", slog.Any("checks", checks))
		}
		writeJSON(w, status, map[string]any{"ok": ok, "checks": checks})
	}
}
