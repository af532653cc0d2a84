package usecase

import (
	"strings"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

// Accuracy text containing any of these substrings disqualifies an award.
var negativeAccuracyMarkers = []string{"incorrect", "false", "no"}

// ComputeScore derives the deterministic score pair from detected issues and
// the model's matched points. The model's own arithmetic is never trusted;
// only its issue/match claims are.
//
// Each issue id is consumed by its first reference, case-insensitively, even
// when that reference's accuracy disqualifies the award.
func ComputeScore(issues []domain.Issue, points []domain.MatchedUserPoint) (userScore, possibleScore int) {
	byID := make(map[string]int, len(issues))
	for _, is := range issues {
		possibleScore += is.PossibleScore
		byID[strings.ToLower(is.ID)] = is.PossibleScore
	}
	if possibleScore < 0 {
		possibleScore = 0
	}

	awarded := make(map[string]bool, len(issues))
	for _, p := range points {
		acc := strings.ToLower(p.Accuracy)
		disqualified := containsAny(acc, negativeAccuracyMarkers)
		for _, id := range p.MatchedIssueIDs {
			key := strings.ToLower(strings.TrimSpace(id))
			if key == "" || awarded[key] {
				continue
			}
			score, ok := byID[key]
			if !ok {
				continue
			}
			if !disqualified {
				userScore += score
			}
			awarded[key] = true
		}
	}

	// An approval-only review of trivially flawed code is not punished.
	if userScore <= 0 && allTrivial(issues) {
		userScore = 0
	}
	if userScore < 0 {
		userScore = 0
	}
	if userScore > possibleScore {
		userScore = possibleScore
	}
	return userScore, possibleScore
}

func allTrivial(issues []domain.Issue) bool {
	for _, is := range issues {
		if is.PossibleScore > 1 {
			return false
		}
	}
	return true
}
