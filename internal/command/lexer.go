package command

import (
	"fmt"
	"strings"
)

// LexError reports text that cannot be split into tokens.
type LexError struct {
	Reason string
	// Offset is the byte offset of the quote that was never closed.
	Offset int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error: %s at offset %d", e.Reason, e.Offset)
}

// Tokenize splits text into words using POSIX-like quoting without any
// expansion: single quotes are fully literal, double quotes honour backslash
// escapes, and an unquoted backslash escapes the following character.
// An explicit "" or '' yields an empty token; whitespace alone yields none.
func Tokenize(text string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		started bool
		quote   byte
		quoteAt int
		escaped bool
	)

	flush := func() {
		if started {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		started = false
	}

	// Quotes, backslash and whitespace are ASCII, so the scan works on bytes
	// and copies everything else through untouched, invalid UTF-8 included.
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			current.WriteByte(c)
			started = true
			escaped = false
			continue
		}

		switch {
		case quote != 0:
			switch {
			case c == quote:
				quote = 0
			case c == '\\' && quote == '"':
				escaped = true
			default:
				current.WriteByte(c)
			}

		case c == '\'' || c == '"':
			quote = c
			quoteAt = i
			started = true

		case c == '\\':
			escaped = true
			started = true

		case isSpace(c):
			flush()

		default:
			current.WriteByte(c)
			started = true
		}
	}

	if quote != 0 {
		return nil, &LexError{Reason: "unclosed quote", Offset: quoteAt}
	}
	if escaped {
		// Trailing backslash has nothing to escape; keep it literally.
		current.WriteByte('\\')
	}
	flush()

	return tokens, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
