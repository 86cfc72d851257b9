// Package diagnostics extracts response metadata from an HTTP client's
// diagnostic stream. Each rule set is tied to one client output format and
// registered under a versioned name, so a format change means a new rule set
// rather than edits to existing patterns.
package diagnostics

import (
	"sort"
)

// Metadata is what a rule set recovered. Nil fields were not present.
type Metadata struct {
	StatusCode    *int
	ResponseTime  *float64
	ContentLength *int64
	ContentType   *string
	Server        *string
	Connection    *string
	Date          *string
	ETag          *string
	XPoweredBy    *string

	// ClientError is set when the client itself reported a failure.
	ClientError     *string
	ClientErrorCode *int
}

// Parser turns a diagnostic stream into Metadata. Implementations must be
// pure and safe for concurrent use.
type Parser interface {
	Name() string
	Parse(stream string) Metadata
}

var parsers = map[string]Parser{
	CurlVerboseV1: curlVerboseV1{},
}

// Lookup returns the rule set registered under name.
func Lookup(name string) (Parser, bool) {
	p, ok := parsers[name]
	return p, ok
}

// Default returns the rule set used when nothing is configured.
func Default() Parser {
	return parsers[CurlVerboseV1]
}

// Names lists registered rule sets in sorted order.
func Names() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
