package secretdetect

import (
	"sort"
	"strings"
)

// Redact replaces detected secrets in the content with a default placeholder.
func Redact(content string, matches []SecretMatch) string {
	return RedactWithPlaceholder(content, "[REDACTED]", matches)
}

// RedactWithPlaceholder replaces detected secrets with a custom placeholder.
// Overlapping matches (a bearer token inside an Authorization header) are
// merged so each secret byte is masked exactly once.
func RedactWithPlaceholder(content string, placeholder string, matches []SecretMatch) string {
	if len(matches) == 0 {
		return content
	}

	spans := make([]SecretMatch, 0, len(matches))
	for _, m := range matches {
		if m.Start < 0 || m.End > len(content) || m.Start >= m.End {
			continue
		}
		spans = append(spans, m)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	var b strings.Builder
	b.Grow(len(content))
	pos := 0
	for _, m := range spans {
		if m.End <= pos {
			continue
		}
		if m.Start >= pos {
			b.WriteString(content[pos:m.Start])
			b.WriteString(placeholder)
		}
		pos = m.End
	}
	b.WriteString(content[pos:])
	return b.String()
}
