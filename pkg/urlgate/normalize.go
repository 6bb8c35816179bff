package urlgate

import (
	"regexp"
	"strings"
)

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((\S+)\)$`)

// NormalizePattern performs basic cleanup on a user-entered URL pattern to
// handle common copy-paste issues. Returns "" when nothing usable is left.
func NormalizePattern(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}
	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	cleaned = strings.TrimSpace(cleaned)
	if !strings.Contains(cleaned, "://") {
		// Domain patterns are matched against lowercased hosts.
		cleaned = strings.TrimSuffix(strings.ToLower(cleaned), ".")
	}
	return cleaned
}

// NormalizePatterns cleans a list of patterns, dropping empties and
// duplicates while keeping order.
func NormalizePatterns(lines []string) []string {
	out := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		p := NormalizePattern(line)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SplitLines splits textarea-style input into trimmed, non-empty lines.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
