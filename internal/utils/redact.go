package utils

import (
	"regexp"
	"strings"
)

// Patterns that identify credential material inside provider error bodies.
// Provider APIs echo keys back in some auth failures, so anything headed for
// logs or attempt records passes through ScrubSecrets first.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{10,}`),          // OpenAI-style keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{10,}`),      // Anthropic keys
	regexp.MustCompile(`AIza[A-Za-z0-9_-]{10,}`),         // Google API keys
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{8,}`), // Authorization headers
}

// ScrubSecrets replaces credential-shaped substrings with a fixed marker.
func ScrubSecrets(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// Truncate shortens s to at most max runes, appending an ellipsis marker.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// SafeMessage prepares a raw provider message for attempt records and logs:
// secrets scrubbed, whitespace collapsed, length bounded.
func SafeMessage(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(ScrubSecrets(s), max)
}
