package secretdetect

import (
	"regexp"
)

// Severity represents the severity level of a detected secret.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// SecretPattern defines a pattern to search for.
//
// When ValueGroup is non-zero only that capture group is reported, so a
// header name such as "Authorization:" survives redaction while its value
// does not. MinEntropy filters out low-entropy values for broad patterns.
type SecretPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Description string
	Severity    Severity
	ValueGroup  int
	MinEntropy  float64
}

// SecretMatch represents a detected secret.
type SecretMatch struct {
	PatternName string
	MatchedText string
	LineNumber  int
	Column      int
	// Start and End are byte offsets into the scanned content.
	Start      int
	End        int
	Confidence float64 // 0.0 to 1.0
}
