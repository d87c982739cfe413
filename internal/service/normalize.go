package service

import (
	"regexp"
	"strings"
)

// knownExtensions are the video and subtitle suffixes stripped during name
// normalization, matched case-insensitively.
var knownExtensions = []string{
	".mp4", ".mov", ".m4v", ".avi", ".mkv", ".webm",
	".srt", ".vtt",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes an artifact name into a matching key: it
// strips one trailing known extension, drops trailing underscore and period
// runs, collapses whitespace runs to a single space, and trims. Comparison
// of keys stays case-sensitive. The function is pure, total, and idempotent.
func NormalizeName(raw string) string {
	name := raw

	lower := strings.ToLower(name)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}

	name = strings.TrimRight(name, "_.")
	name = whitespaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
