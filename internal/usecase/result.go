package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

// MapResult converts a normalized model document into the canonical result
// shape. Never fails: absent or wrong-typed fields degrade to defaults.
func MapResult(problemID, jsonText string, parsed map[string]any) domain.ReviewResult {
	res := domain.ReviewResult{
		ProblemID:              problemID,
		IssuesDetected:         []domain.Issue{},
		MatchedUserPoints:      []domain.MatchedUserPoint{},
		MissedCriticalIssueIDs: []string{},
		RawModelJSON:           jsonText,
	}

	res.IssuesDetected = mapIssues(parsed["issuesDetected"])
	res.MatchedUserPoints = mapMatchedPoints(parsed["matchedUserPoints"])
	res.MissedCriticalIssueIDs = mapStringList(parsed["missedCriticalIssueIds"])

	if s, ok := parsed["summary"].(string); ok {
		res.Summary = s
	}
	// Only a JSON string is accepted; never inferred from other types.
	if s, ok := parsed["recommendedCode"].(string); ok {
		res.RecommendedCode = s
	}
	// True only for the JSON literal true.
	if b, ok := parsed["isShippableAsIs"].(bool); ok && b {
		res.IsShippableAsIs = true
	}

	res.SpellingProblemsDetected = detectSpellingProblems(parsed, res)
	res.ReviewQualityBonusGranted = detectQualityBonus(parsed, res.Summary)
	return res
}

func mapIssues(v any) []domain.Issue {
	arr, ok := v.([]any)
	if !ok {
		return []domain.Issue{}
	}
	issues := make([]domain.Issue, 0, len(arr))
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		issue := domain.Issue{
			ID:          flexString(m["id"]),
			Category:    flexString(m["category"]),
			Title:       flexString(m["title"]),
			Explanation: flexString(m["explanation"]),
			Severity:    flexString(m["severity"]),
		}
		if f, ok := m["possibleScore"].(float64); ok {
			issue.PossibleScore = int(math.Round(f))
		} else {
			issue.PossibleScore = domain.PointsForSeverity(strings.ToLower(issue.Severity))
		}
		issues = append(issues, issue)
	}
	return issues
}

func mapMatchedPoints(v any) []domain.MatchedUserPoint {
	arr, ok := v.([]any)
	if !ok {
		return []domain.MatchedUserPoint{}
	}
	points := make([]domain.MatchedUserPoint, 0, len(arr))
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		points = append(points, domain.MatchedUserPoint{
			Excerpt:         flexString(m["excerpt"]),
			Accuracy:        flexString(m["accuracy"]),
			MatchedIssueIDs: mapStringList(m["matchedIssueIds"]),
		})
	}
	return points
}

func mapStringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, flexString(e))
	}
	return out
}

// flexString coerces model output leniently at the JSON-to-domain boundary:
// numbers and booleans stringify, null and unknown shapes become empty. All
// duck-typing leniency lives here and nowhere else.
func flexString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

var spellingTerms = []string{
	"spelling", "spelling error", "misspell", "misspelled",
	"typo", "typos", "misspelling",
}

// detectSpellingProblems prefers the explicit boolean; otherwise it counts
// spelling-related keyword occurrences across the summary, every
// issue/matched-point text, and the raw JSON document. The mapped fields are
// embedded in the raw document, so the two tallies are taken as alternatives
// rather than summed. Two or more occurrences flip the flag, so one
// incidental mention never false-positives.
func detectSpellingProblems(parsed map[string]any, res domain.ReviewResult) bool {
	if b, ok := parsed["spellingProblemsDetected"].(bool); ok {
		return b
	}
	texts := []string{res.Summary}
	for _, is := range res.IssuesDetected {
		texts = append(texts, is.Title+" "+is.Explanation)
	}
	for _, p := range res.MatchedUserPoints {
		texts = append(texts, p.Excerpt+" "+p.Accuracy)
	}
	mapped := 0
	for _, text := range texts {
		mapped += countSpellingTerms(text)
	}
	total := mapped
	if raw := countSpellingTerms(res.RawModelJSON); raw > total {
		total = raw
	}
	return total >= 2
}

func countSpellingTerms(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, term := range spellingTerms {
		n += strings.Count(lower, term)
	}
	return n
}

var (
	negationCues = []string{
		"lack", "lacks", "missing", "missed", "no", "not", "doesn't",
		"didn't", "without", "low", "poor", "insufficient",
	}
	trustIndicators = []string{
		"clear and actionable", "clear, actionable", "actionable feedback",
		"actionable", "good", "well",
	}
	actionablePhrases = []string{
		"clear and actionable", "clear, actionable", "actionable guidance",
		"actionable suggestions", "actionable items", "actionable feedback",
		"actionable",
	}
)

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// detectQualityBonus resolves the bonus flag through an ordered rule table;
// the first satisfied rule wins, none matching means no bonus. The rule lists
// are tuned empirically and must stay literal.
func detectQualityBonus(parsed map[string]any, summary string) bool {
	lower := strings.ToLower(summary)
	explicit, hasExplicit := parsed["reviewQualityBonusGranted"].(bool)

	rules := []func() bool{
		// Explicit flag, honored only when the summary does not undercut it.
		func() bool {
			return hasExplicit && explicit &&
				(!containsAny(lower, negationCues) || containsAny(lower, trustIndicators))
		},
		// Positive actionable phrasing with no negation cue.
		func() bool {
			return containsAny(lower, actionablePhrases) && !containsAny(lower, negationCues)
		},
		// "clear" and "actionable" independently present.
		func() bool {
			return strings.Contains(lower, "clear") && strings.Contains(lower, "actionable") &&
				(!containsAny(lower, negationCues) || strings.Contains(lower, "overall"))
		},
	}
	for _, rule := range rules {
		if rule() {
			return true
		}
	}
	return false
}
