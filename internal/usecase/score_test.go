package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

func issue(id, severity string) domain.Issue {
	return domain.Issue{
		ID:            id,
		Severity:      severity,
		PossibleScore: domain.PointsForSeverity(severity),
	}
}

func TestComputeScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		issues       []domain.Issue
		points       []domain.MatchedUserPoint
		wantUser     int
		wantPossible int
	}{
		{
			name:         "empty",
			wantUser:     0,
			wantPossible: 0,
		},
		{
			name:   "full_marks",
			issues: []domain.Issue{issue("1", "high"), issue("2", "medium")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"1"}, Accuracy: "correct"},
				{MatchedIssueIDs: []string{"2"}, Accuracy: "correct"},
			},
			wantUser:     5,
			wantPossible: 5,
		},
		{
			name:   "duplicate_id_counted_once",
			issues: []domain.Issue{issue("1", "high")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"1"}, Accuracy: "correct"},
				{MatchedIssueIDs: []string{"1"}, Accuracy: "correct"},
			},
			wantUser:     3,
			wantPossible: 3,
		},
		{
			name:   "case_insensitive_lookup",
			issues: []domain.Issue{issue("NullCheck", "high")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{" nullcheck "}, Accuracy: "correct"},
			},
			wantUser:     3,
			wantPossible: 3,
		},
		{
			name:   "disqualified_match_consumes_id",
			issues: []domain.Issue{issue("1", "high")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"1"}, Accuracy: "incorrect"},
				{MatchedIssueIDs: []string{"1"}, Accuracy: "correct"},
			},
			wantUser:     0,
			wantPossible: 3,
		},
		{
			name:   "negative_marker_no_substring",
			issues: []domain.Issue{issue("1", "medium")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"1"}, Accuracy: "nothing wrong here"},
			},
			wantUser:     0,
			wantPossible: 2,
		},
		{
			name:   "unknown_id_skipped_not_consumed",
			issues: []domain.Issue{issue("1", "low")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"99", "1"}, Accuracy: "correct"},
			},
			wantUser:     1,
			wantPossible: 1,
		},
		{
			name:   "blank_id_ignored",
			issues: []domain.Issue{issue("1", "low")},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"", "  ", "1"}, Accuracy: "correct"},
			},
			wantUser:     1,
			wantPossible: 1,
		},
		{
			name: "score_clamped_to_possible",
			issues: []domain.Issue{
				{ID: "1", Severity: "high", PossibleScore: 9},
				{ID: "2", Severity: "low", PossibleScore: -9},
			},
			points: []domain.MatchedUserPoint{
				{MatchedIssueIDs: []string{"1"}, Accuracy: "correct"},
			},
			wantUser:     0,
			wantPossible: 0,
		},
		{
			name:         "trivial_only_no_points",
			issues:       []domain.Issue{issue("1", "trivial"), issue("2", "low")},
			wantUser:     0,
			wantPossible: 2,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			user, possible := ComputeScore(tt.issues, tt.points)
			assert.Equal(t, tt.wantUser, user, "userScore")
			assert.Equal(t, tt.wantPossible, possible, "possibleScore")
		})
	}
}

func TestPointsForSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity string
		want     int
	}{
		{"critical", 3},
		{"high", 3},
		{"medium", 2},
		{"low", 1},
		{"trivial", 1},
		{"", 2},
		{"bogus", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.PointsForSeverity(tt.severity), tt.severity)
	}
}
