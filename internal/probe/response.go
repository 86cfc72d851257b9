package probe

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/codefionn/curlgate/internal/diagnostics"
	"github.com/codefionn/curlgate/internal/executor"
)

// FailureKind records which stage stopped a call. It is kept for logging and
// tool metadata; the JSON contract only exposes the error message.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureLex
	FailurePolicy
	FailureExecution
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return ""
	case FailureLex:
		return "lex"
	case FailurePolicy:
		return "policy"
	case FailureExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// Response is the only value a call returns. On failure Data is nil and
// Error is set.
type Response struct {
	Data          interface{} `json:"data"`
	StatusCode    *int        `json:"statusCode,omitempty"`
	ResponseTime  *float64    `json:"responseTime,omitempty"`
	ContentLength *int64      `json:"contentLength,omitempty"`
	ContentType   *string     `json:"contentType,omitempty"`
	Server        *string     `json:"server,omitempty"`
	Connection    *string     `json:"connection,omitempty"`
	Date          *string     `json:"date,omitempty"`
	ETag          *string     `json:"etag,omitempty"`
	XPoweredBy    *string     `json:"xPoweredBy,omitempty"`
	Error         *string     `json:"error,omitempty"`

	failure     FailureKind
	execKind    executor.Kind
	exitCode    int
	duration    time.Duration
	stderrBytes int
	digest      string
}

// Failed reports whether Error is set.
func (r *Response) Failed() bool { return r.Error != nil }

// Failure returns the stage that failed, or FailureNone.
func (r *Response) Failure() FailureKind { return r.failure }

// ExecutionKind is the executor failure kind when Failure is
// FailureExecution, and zero otherwise.
func (r *Response) ExecutionKind() executor.Kind { return r.execKind }

// ExitCode is the child's exit status, or -1 when nothing ran.
func (r *Response) ExitCode() int { return r.exitCode }

// Duration is the wall-clock time spent in the child process.
func (r *Response) Duration() time.Duration { return r.duration }

// StderrBytes is the size of the diagnostic stream that was parsed.
func (r *Response) StderrBytes() int { return r.stderrBytes }

// Digest identifies the command text in logs without revealing it.
func (r *Response) Digest() string { return r.digest }

func failed(kind FailureKind, err error, digest string) *Response {
	msg := err.Error()
	return &Response{
		Error:    &msg,
		failure:  kind,
		exitCode: -1,
		digest:   digest,
	}
}

func (r *Response) applyMetadata(m diagnostics.Metadata) {
	r.StatusCode = m.StatusCode
	r.ResponseTime = m.ResponseTime
	r.ContentLength = m.ContentLength
	r.ContentType = m.ContentType
	r.Server = m.Server
	r.Connection = m.Connection
	r.Date = m.Date
	r.ETag = m.ETag
	r.XPoweredBy = m.XPoweredBy
	r.Error = m.ClientError
}

// decodePayload returns stdout as a decoded JSON value, or the raw text when
// it is not valid JSON. Numbers stay json.Number so large integers and
// values outside float64 range survive re-encoding.
func decodePayload(stdout string) interface{} {
	if !gjson.Valid(stdout) {
		return stdout
	}
	return payloadValue(gjson.Parse(stdout))
}

func payloadValue(r gjson.Result) interface{} {
	switch r.Type {
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(strings.TrimSpace(r.Raw))
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if r.IsArray() {
			values := make([]interface{}, 0)
			r.ForEach(func(_, v gjson.Result) bool {
				values = append(values, payloadValue(v))
				return true
			})
			return values
		}
		fields := make(map[string]interface{})
		r.ForEach(func(k, v gjson.Result) bool {
			fields[k.String()] = payloadValue(v)
			return true
		})
		return fields
	default:
		return nil
	}
}
