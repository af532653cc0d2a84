// Package usecase contains the review evaluation pipeline: prompt assembly,
// model response normalization, result mapping, scoring and fallbacks.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

// EvaluateService runs one review submission through the evaluation pipeline.
// Stateless; safe for concurrent use across independent submissions.
type EvaluateService struct {
	AI domain.AIClient
}

// NewEvaluateService constructs an EvaluateService.
func NewEvaluateService(ai domain.AIClient) EvaluateService {
	return EvaluateService{AI: ai}
}

// Evaluate builds the prompt, calls the model once, and converts whatever
// comes back into a well-formed ReviewResult. Every recoverable failure is
// absorbed into a fallback result; only caller cancellation and invalid
// arguments surface as errors.
func (s EvaluateService) Evaluate(ctx domain.Context, req domain.ReviewRequest) (domain.ReviewResult, error) {
	if req.ProblemID == "" {
		return domain.ReviewResult{}, fmt.Errorf("%w: problem id required", domain.ErrInvalidArgument)
	}

	evalID := uuid.NewString()
	lg := slog.Default().With(slog.String("eval_id", evalID), slog.String("problem_id", req.ProblemID))

	if s.AI == nil {
		lg.Warn("AI client absent; returning not-configured fallback")
		return FallbackResult(req.ProblemID, "not configured", "", ""), nil
	}

	prompt := BuildPrompt(req)
	start := time.Now()
	raw, err := s.AI.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Caller withdrew the request; a fallback would misreport that
			// as a degraded evaluation.
			return domain.ReviewResult{}, err
		}
		if errors.Is(err, domain.ErrNotConfigured) {
			lg.Warn("AI client not configured", slog.Any("error", err))
			return FallbackResult(req.ProblemID, "not configured", "", ""), nil
		}
		lg.Error("model call failed", slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
		return FallbackResult(req.ProblemID, "exception", err.Error(), ""), nil
	}
	lg.Debug("model responded", slog.Int("raw_len", len(raw)), slog.Duration("elapsed", time.Since(start)))

	jsonText, err := NormalizeModelJSON(raw)
	if err != nil {
		reason := "non-JSON response"
		if errors.Is(err, domain.ErrEmptyResponse) {
			reason = "empty response"
		}
		lg.Warn("model output not usable", slog.String("reason", reason))
		return FallbackResult(req.ProblemID, reason, "", raw), nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		lg.Warn("normalized output is not a JSON object", slog.Any("error", err))
		return FallbackResult(req.ProblemID, "non-JSON response", "", raw), nil
	}

	res := MapResult(req.ProblemID, jsonText, parsed)
	res.UserScore, res.PossibleScore = ComputeScore(res.IssuesDetected, res.MatchedUserPoints)

	lg.Info("evaluation completed",
		slog.Int("issues", len(res.IssuesDetected)),
		slog.Int("user_score", res.UserScore),
		slog.Int("possible_score", res.PossibleScore),
		slog.Bool("shippable", res.IsShippableAsIs))
	return res, nil
}

// FallbackResult produces the well-formed zero-score result returned when
// evaluation could not complete normally.
func FallbackResult(problemID, reason, details, rawText string) domain.ReviewResult {
	errMsg := reason
	summary := "Fallback: " + reason
	if details != "" {
		errMsg = reason + ": " + details
		summary += " " + details
	}
	return domain.ReviewResult{
		ProblemID:              problemID,
		IssuesDetected:         []domain.Issue{},
		MatchedUserPoints:      []domain.MatchedUserPoint{},
		MissedCriticalIssueIDs: []string{},
		Summary:                summary,
		RawModelJSON:           rawText,
		IsFallback:             true,
		Error:                  errMsg,
	}
}
