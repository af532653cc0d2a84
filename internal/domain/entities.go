package domain

import (
	"context"
	"errors"
	"math/rand"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrNotConfigured   = errors.New("not configured")
	ErrEmptyResponse   = errors.New("empty response")
	ErrNonJSONResponse = errors.New("non-JSON response")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrInternal        = errors.New("internal error")
)

// Severity levels reported by the model for a detected issue.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityTrivial  = "trivial"
)

// PointsForSeverity maps a severity label to its point value. Unrecognized
// or absent severities default to the medium value.
func PointsForSeverity(severity string) int {
	switch severity {
	case SeverityCritical, SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow, SeverityTrivial:
		return 1
	default:
		return 2
	}
}

// ReviewRequest carries one review submission through the evaluation
// pipeline. Constructed per submission; never mutated.
type ReviewRequest struct {
	ProblemID             string
	Code                  string
	UserReview            string
	PatchPurpose          string
	UserShippabilityClaim *bool
}

// Issue is a single reviewable defect the model claims to have found in the
// patch's final state. Issues exist per response only; there is no persistent
// issue catalog at this layer.
type Issue struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Title         string `json:"title"`
	Explanation   string `json:"explanation"`
	Severity      string `json:"severity"`
	PossibleScore int    `json:"possibleScore"`
}

// MatchedUserPoint is the model's claim that an excerpt of the user's review
// corresponds to one or more detected issues.
type MatchedUserPoint struct {
	Excerpt         string   `json:"excerpt"`
	MatchedIssueIDs []string `json:"matchedIssueIds"`
	Accuracy        string   `json:"accuracy"`
}

// ReviewResult is the canonical, always fully populated evaluation output.
// JSON field names are the wire contract rendered by callers.
//
// Invariants: PossibleScore = sum of issue scores (>= 0);
// 0 <= UserScore <= PossibleScore; IsFallback implies empty sequences and
// zero scores.
type ReviewResult struct {
	ProblemID                 string             `json:"problemId"`
	IssuesDetected            []Issue            `json:"issuesDetected"`
	MatchedUserPoints         []MatchedUserPoint `json:"matchedUserPoints"`
	MissedCriticalIssueIDs    []string           `json:"missedCriticalIssueIds"`
	Summary                   string             `json:"summary"`
	RawModelJSON              string             `json:"rawModelJson"`
	RecommendedCode           string             `json:"recommendedCode"`
	IsFallback                bool               `json:"isFallback"`
	Error                     string             `json:"error,omitempty"`
	SpellingProblemsDetected  bool               `json:"spellingProblemsDetected"`
	ReviewQualityBonusGranted bool               `json:"reviewQualityBonusGranted"`
	UserScore                 int                `json:"userScore"`
	PossibleScore             int                `json:"possibleScore"`
	IsShippableAsIs           bool               `json:"isShippableAsIs"`
}

// Problem is a mock patch from the problem bank. The ID's leading segment
// (before the first underscore) doubles as the language tag.
type Problem struct {
	ID       string `json:"id" yaml:"id"`
	Language string `json:"language" yaml:"language"`
	Title    string `json:"title" yaml:"title"`
	Purpose  string `json:"purpose" yaml:"purpose"`
	Patch    string `json:"patch" yaml:"patch"`
}

// AIClient (port)
//
// Complete sends a single prompt to the external language model and returns
// the raw response text. Implementations must honor ctx cancellation and may
// retry transient transport failures; the evaluation core invokes it at most
// once per submission.
type AIClient interface {
	Complete(ctx Context, prompt string) (string, error)
}

// ProblemBank (port)
//
// Read-only after startup; safe for concurrent use. Random takes an injected
// randomness source so selection stays deterministically testable.
type ProblemBank interface {
	Get(ctx Context, id string) (Problem, error)
	List(ctx Context) []Problem
	Random(ctx Context, rng *rand.Rand) (Problem, error)
}

// Context aliases context.Context so domain signatures stay decoupled from
// the stdlib import at call sites.
type Context = context.Context
