package secretdetect

import (
	"sort"
	"strings"
)

// DetectorImpl scans text with a fixed pattern set.
type DetectorImpl struct {
	patterns []SecretPattern
}

// NewDetector creates a new detector with default patterns.
func NewDetector() *DetectorImpl {
	return &DetectorImpl{
		patterns: GetDefaultPatterns(),
	}
}

// Scan scans the provided content for secrets. Matches are ordered by offset.
func (d *DetectorImpl) Scan(content string) []SecretMatch {
	if content == "" {
		return nil
	}

	lineStarts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}

	var matches []SecretMatch
	for _, pattern := range d.patterns {
		for _, loc := range pattern.Regex.FindAllStringSubmatchIndex(content, -1) {
			start, end := loc[0], loc[1]
			if g := pattern.ValueGroup; g > 0 && 2*g+1 < len(loc) && loc[2*g] >= 0 {
				start, end = loc[2*g], loc[2*g+1]
			}
			value := strings.TrimSpace(content[start:end])
			if value == "" {
				continue
			}
			end = start + strings.Index(content[start:end], value) + len(value)
			start = end - len(value)
			if pattern.MinEntropy > 0 && CalculateEntropy(value) < pattern.MinEntropy {
				continue
			}

			line := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > start })
			matches = append(matches, SecretMatch{
				PatternName: pattern.Name,
				MatchedText: value,
				LineNumber:  line,
				Column:      start - lineStarts[line-1] + 1,
				Start:       start,
				End:         end,
				Confidence:  1.0,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

// RedactString scans content and masks every detected secret.
// It has the shape of a logger.Redactor.
func (d *DetectorImpl) RedactString(content string) string {
	return Redact(content, d.Scan(content))
}
