package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

// NormalizeModelJSON turns raw model output into a parseable JSON document.
// It strips markdown fencing, isolates the outermost JSON object, and repairs
// common truncation defects. Fails with domain.ErrEmptyResponse or
// domain.ErrNonJSONResponse.
func NormalizeModelJSON(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: blank model output", domain.ErrEmptyResponse)
	}

	s := stripMarkdownFence(strings.TrimSpace(raw))
	s = isolateBraces(s)
	if json.Valid([]byte(s)) {
		return s, nil
	}

	// Idempotent safety net before attempting repair.
	s = isolateBraces(s)
	if repaired, ok := repairTruncatedJSON(s); ok {
		return repaired, nil
	}
	return "", fmt.Errorf("%w: unrepairable model output", domain.ErrNonJSONResponse)
}

// stripMarkdownFence removes a leading ``` line (optionally tagged with a
// language) and a trailing ``` if present.
func stripMarkdownFence(s string) string {
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isolateBraces slices to the span between the first '{' and the last '}',
// discarding commentary the model added around the object.
func isolateBraces(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// repairTruncatedJSON strips quoted ellipsis tokens and, when the bracket
// structure is unbalanced, truncates backwards at each }/] boundary until a
// balanced candidate appears. The first balanced candidate decides: if it
// still fails to parse, the content is garbage rather than truncated, and
// scanning deeper would invent a result from an earlier fragment.
func repairTruncatedJSON(s string) (string, bool) {
	s = strings.ReplaceAll(s, `"..."`, `""`)
	s = strings.TrimSuffix(strings.TrimSpace(s), "...")

	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != '}' && s[i] != ']' {
			continue
		}
		candidate := s[:i+1]
		if bracketsBalanced(candidate) {
			return candidate, json.Valid([]byte(candidate))
		}
	}
	return "", false
}

// bracketsBalanced scans outside string literals, honoring escape sequences,
// and reports whether every {/[ closes in order with nothing left open.
func bracketsBalanced(s string) bool {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return !inString && len(stack) == 0
}
