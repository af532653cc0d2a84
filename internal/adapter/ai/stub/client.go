// Package stub provides a fast, deterministic AI client for local use and
// tests. It is wired automatically in dev when no API key is configured.
package stub

import (
	"encoding/json"
	"time"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

// Client returns a fixed, schema-true response for any prompt.
type Client struct{}

// New constructs a stub client.
func New() *Client { return &Client{} }

// Complete returns a compact JSON string matching the expected schema.
func (c *Client) Complete(ctx domain.Context, _ string) (string, error) {
	// Simulate a tiny bit of processing latency to resemble real work
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	payload := map[string]any{
		"problemId": "stub",
		"issuesDetected": []map[string]any{
			{
				"id":            "1",
				"category":      "correctness",
				"title":         "Off-by-one in pagination bounds",
				"explanation":   "The final page drops the last element because the upper bound is exclusive.",
				"severity":      "high",
				"possibleScore": 3,
			},
		},
		"matchedUserPoints": []map[string]any{
			{
				"excerpt":         "the last page seems to lose an item",
				"matchedIssueIds": []string{"1"},
				"accuracy":        "correct",
			},
		},
		"missedCriticalIssueIds":    []string{},
		"reviewQualityBonusGranted": false,
		"spellingProblemsDetected":  false,
		"summary":                   "Summary: The review caught the pagination defect.\n\nHow you can improve: Verify boundary conditions with a concrete example.",
		"recommendedCode":           "",
		"isShippableAsIs":           false,
	}
	b, _ := json.Marshal(payload)
	return string(b), nil
}
