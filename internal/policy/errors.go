package policy

import "fmt"

// Reason classifies a policy rejection so callers can branch on it.
type Reason int

const (
	ReasonShellMetacharacter Reason = iota + 1
	ReasonCommandTooLong
	ReasonEmptyCommand
	ReasonProgramMismatch
	ReasonMissingURL
	ReasonMultipleURLs
	ReasonInvalidURL
	ReasonUnsupportedScheme
	ReasonURLCredentials
	ReasonURLTooLong
	ReasonFlagNotAllowed
	ReasonUnsupportedFlag
	ReasonMissingFlagValue
	ReasonInvalidFlagValue
	ReasonFileDataSource
	ReasonHeaderTooLong
)

var reasonText = map[Reason]string{
	ReasonShellMetacharacter: "shell metacharacter not allowed",
	ReasonCommandTooLong:     "command too long",
	ReasonEmptyCommand:       "empty command",
	ReasonProgramMismatch:    "only curl commands are allowed",
	ReasonMissingURL:         "missing URL",
	ReasonMultipleURLs:       "multiple URLs not allowed",
	ReasonInvalidURL:         "invalid URL",
	ReasonUnsupportedScheme:  "only http and https URLs are allowed",
	ReasonURLCredentials:     "credentials in URL not allowed",
	ReasonURLTooLong:         "URL too long",
	ReasonFlagNotAllowed:     "flag not allowed",
	ReasonUnsupportedFlag:    "unsupported flag",
	ReasonMissingFlagValue:   "missing value for flag",
	ReasonInvalidFlagValue:   "invalid value for flag",
	ReasonFileDataSource:     "file data sources not allowed",
	ReasonHeaderTooLong:      "header too long",
}

func (r Reason) String() string {
	if s, ok := reasonText[r]; ok {
		return s
	}
	return fmt.Sprintf("policy reason %d", int(r))
}

// Error is a policy violation. Detail names the offending token where that
// is safe to echo back; URLs with credentials are never echoed.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Reason.String()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Is lets errors.Is match on reason alone: errors.Is(err, &Error{Reason: ReasonMissingURL}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Detail == "" || t.Detail == e.Detail)
}

func reject(reason Reason, detail string) *Error {
	return &Error{Reason: reason, Detail: detail}
}
