package diagnostics

import (
	"regexp"
	"strconv"
	"strings"
)

// CurlVerboseV1 matches the `-v` output of curl 7.x/8.x: response lines are
// prefixed with "< ", informational lines with "* ", and failures end with
// "curl: (N) message". Header names are matched case-sensitively as curl
// prints them for HTTP/1.x; lower-case HTTP/2 header names do not match.
const CurlVerboseV1 = "curl-verbose/v1"

var (
	statusLineRe  = regexp.MustCompile(`(?m)^< HTTP/[0-9.]+ (\d{3})`)
	timeTotalRe   = regexp.MustCompile(`(?m)^(?:\* )?time_total:\s*([0-9]+(?:\.[0-9]+)?)`)
	clientErrorRe = regexp.MustCompile(`(?m)^curl: \((\d+)\) ([^\r\n]*)`)
)

type headerRule struct {
	re  *regexp.Regexp
	set func(*Metadata, string)
}

func responseHeader(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^< ` + regexp.QuoteMeta(name) + `:[ \t]*([^\r\n]*)`)
}

var headerRules = []headerRule{
	{responseHeader("Content-Type"), func(m *Metadata, v string) { m.ContentType = &v }},
	{responseHeader("Server"), func(m *Metadata, v string) { m.Server = &v }},
	{responseHeader("Connection"), func(m *Metadata, v string) { m.Connection = &v }},
	{responseHeader("Date"), func(m *Metadata, v string) { m.Date = &v }},
	{responseHeader("ETag"), func(m *Metadata, v string) { m.ETag = &v }},
	{responseHeader("X-Powered-By"), func(m *Metadata, v string) { m.XPoweredBy = &v }},
	{responseHeader("Content-Length"), func(m *Metadata, v string) {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			m.ContentLength = &n
		}
	}},
}

type curlVerboseV1 struct{}

func (curlVerboseV1) Name() string { return CurlVerboseV1 }

func (curlVerboseV1) Parse(stream string) Metadata {
	var m Metadata

	if sm := statusLineRe.FindStringSubmatch(stream); sm != nil {
		if code, err := strconv.Atoi(sm[1]); err == nil {
			m.StatusCode = &code
		}
	}

	for _, rule := range headerRules {
		if sm := rule.re.FindStringSubmatch(stream); sm != nil {
			rule.set(&m, strings.TrimRight(sm[1], " \t"))
		}
	}

	if sm := timeTotalRe.FindStringSubmatch(stream); sm != nil {
		if secs, err := strconv.ParseFloat(sm[1], 64); err == nil {
			m.ResponseTime = &secs
		}
	}

	if sm := clientErrorRe.FindStringSubmatch(stream); sm != nil {
		msg := strings.TrimSpace(sm[0])
		m.ClientError = &msg
		if code, err := strconv.Atoi(sm[1]); err == nil {
			m.ClientErrorCode = &code
		}
	}

	return m
}
