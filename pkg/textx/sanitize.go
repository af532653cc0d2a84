package textx

import (
	"regexp"
	"strings"
)

// RedactionMarker replaces text that looks like an attempt to smuggle
// instructions into the prompt.
const RedactionMarker = "[REDACTED_INSTRUCTION]"

var (
	fencedBlockRe = regexp.MustCompile("(?s)```.*?```")
	roleLineRe    = regexp.MustCompile(`(?im)^[ \t]*(system|assistant|user)[ \t]*:.*$`)
	multiNewline  = regexp.MustCompile(`\n{2,}`)

	// Known jailbreak phrases, matched as case-insensitive substrings.
	jailbreakPhrases = []string{
		"ignore previous instructions",
		"disregard previous instructions",
		"you are now",
		"role:",
		"become",
		"follow these instructions",
	}

	jailbreakRes = compilePhrases(jailbreakPhrases)
)

func compilePhrases(phrases []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		res = append(res, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p)))
	}
	return res
}

// SanitizeReview neutralizes prompt-injection patterns in free-form review
// text before it is embedded into a prompt. Fenced code blocks are removed,
// role-label lines are dropped, known jailbreak phrases are replaced with
// RedactionMarker, and blank-line runs collapse to a single newline.
// Empty or whitespace-only input yields the empty string.
func SanitizeReview(s string) string {
	s = fencedBlockRe.ReplaceAllString(s, "")
	s = roleLineRe.ReplaceAllString(s, "")
	for _, re := range jailbreakRes {
		s = re.ReplaceAllString(s, RedactionMarker)
	}
	s = multiNewline.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// SanitizeCode redacts injection-looking lines in patch source text. A line
// whose trimmed content matches a role label, contains a jailbreak phrase, or
// starts with "role:" is replaced whole with a comment carrying
// RedactionMarker; all other lines pass through unchanged.
func SanitizeCode(s, language string) string {
	token := lineCommentToken(language)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if suspiciousCodeLine(strings.TrimSpace(line)) {
			lines[i] = token + " " + RedactionMarker
		}
	}
	return strings.Join(lines, "\n")
}

func suspiciousCodeLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if roleLineRe.MatchString(trimmed) {
		return true
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "role:") {
		return true
	}
	for _, p := range jailbreakPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// lineCommentToken returns the single-line comment prefix for the given
// language tag. Every language supported here uses two slashes.
func lineCommentToken(language string) string {
	switch strings.ToLower(language) {
	case "cs", "csharp", "js", "javascript", "ts", "typescript":
		return "//"
	default:
		return "//"
	}
}
