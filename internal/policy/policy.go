// Package policy decides whether a tokenized command may run. It is fail
// closed: anything it does not positively recognise is rejected.
package policy

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/codefionn/curlgate/internal/consts"
)

// shellMetacharacters are refused anywhere in the raw text, quoted or not.
const shellMetacharacters = "|&;><`"

// ArgumentVector is a token list that passed Validate. It can only be
// produced by this package; element 0 is always the program name.
type ArgumentVector struct {
	args []string
}

// Args returns a copy of the validated argument vector.
func (v ArgumentVector) Args() []string {
	return append([]string(nil), v.args...)
}

// URL returns the single bare URL argument.
func (v ArgumentVector) URL() string {
	for i := 1; i < len(v.args); i++ {
		tok := v.args[i]
		if f, ok := LookupFlag(tok); ok {
			if f.TakesValue() {
				i++
			}
			continue
		}
		return tok
	}
	return ""
}

// Len returns the number of elements, program name included.
func (v ArgumentVector) Len() int { return len(v.args) }

// Validator holds the limits the policy enforces. The zero value is not
// usable; use New.
type Validator struct {
	program          string
	maxCommandLength int
	maxURLLength     int
	maxHeaderLength  int
}

// New returns a validator enforcing the fixed production limits.
func New() *Validator {
	return &Validator{
		program:          consts.ProgramName,
		maxCommandLength: consts.MaxCommandLength,
		maxURLLength:     consts.MaxURLLength,
		maxHeaderLength:  consts.MaxHeaderLength,
	}
}

// CheckRaw applies the guards that run on the raw text before tokenizing.
func (v *Validator) CheckRaw(raw string) error {
	if i := strings.IndexAny(raw, shellMetacharacters); i >= 0 {
		return reject(ReasonShellMetacharacter, strconv.QuoteRune(rune(raw[i])))
	}
	if n := utf8.RuneCountInString(raw); n > v.maxCommandLength {
		return reject(ReasonCommandTooLong, strconv.Itoa(n)+" characters")
	}
	return nil
}

// Validate walks tokens and returns them as an ArgumentVector when every
// constraint holds.
func (v *Validator) Validate(tokens []string) (ArgumentVector, error) {
	if len(tokens) == 0 {
		return ArgumentVector{}, reject(ReasonEmptyCommand, "")
	}
	if tokens[0] != v.program {
		return ArgumentVector{}, reject(ReasonProgramMismatch, tokens[0])
	}

	urls := 0
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]

		if !strings.HasPrefix(tok, "-") {
			if err := v.checkURL(tok); err != nil {
				return ArgumentVector{}, err
			}
			urls++
			if urls > 1 {
				return ArgumentVector{}, reject(ReasonMultipleURLs, "")
			}
			continue
		}

		flag, known := LookupFlag(tok)
		if known && flag.Denied() {
			return ArgumentVector{}, reject(ReasonFlagNotAllowed, tok)
		}
		if !known || !flag.Allowed() {
			return ArgumentVector{}, reject(ReasonUnsupportedFlag, tok)
		}
		if !flag.TakesValue() {
			continue
		}

		if i+1 >= len(tokens) {
			return ArgumentVector{}, reject(ReasonMissingFlagValue, tok)
		}
		i++
		if err := v.checkValue(tok, flag, tokens[i]); err != nil {
			return ArgumentVector{}, err
		}
	}

	if urls == 0 {
		return ArgumentVector{}, reject(ReasonMissingURL, "")
	}

	return ArgumentVector{args: append([]string(nil), tokens...)}, nil
}

func (v *Validator) checkURL(raw string) error {
	if n := utf8.RuneCountInString(raw); n > v.maxURLLength {
		return reject(ReasonURLTooLong, strconv.Itoa(n)+" characters")
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return reject(ReasonInvalidURL, "")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return reject(ReasonUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return reject(ReasonInvalidURL, "")
	}
	if u.User != nil {
		return reject(ReasonURLCredentials, "")
	}
	return nil
}

func (v *Validator) checkValue(spelling string, flag Flag, value string) error {
	switch {
	case flag.CarriesData():
		if strings.HasPrefix(value, "@") {
			return reject(ReasonFileDataSource, spelling)
		}
		// --data-urlencode also reads files via "name@file".
		if flag == FlagDataURLEncode {
			name, _, hasEq := strings.Cut(value, "=")
			if (!hasEq && strings.Contains(value, "@")) || (hasEq && strings.Contains(name, "@")) {
				return reject(ReasonFileDataSource, spelling)
			}
		}

	case flag.SetsHeader():
		if utf8.RuneCountInString(value) > v.maxHeaderLength {
			return reject(ReasonHeaderTooLong, spelling)
		}
		// -H @file loads headers from disk.
		if strings.HasPrefix(value, "@") {
			return reject(ReasonFileDataSource, spelling)
		}
		if strings.ContainsAny(value, "\r\n") {
			return reject(ReasonInvalidFlagValue, spelling)
		}

	case flag.is(classNumeric):
		if f, err := strconv.ParseFloat(value, 64); err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return reject(ReasonInvalidFlagValue, spelling)
		}

	case flag.is(classMethod):
		if value == "" || strings.IndexFunc(value, func(r rune) bool {
			return (r < 'A' || r > 'Z') && (r < 'a' || r > 'z')
		}) >= 0 {
			return reject(ReasonInvalidFlagValue, spelling)
		}
	}
	return nil
}
