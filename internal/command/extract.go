// Package command turns free-form caller text into the token list the
// policy validator inspects. Nothing here executes or validates anything.
package command

import (
	"strings"

	"github.com/codefionn/curlgate/internal/consts"
)

// ProgramName is the binary every accepted command must start with.
const ProgramName = consts.ProgramName

const fence = "```"

// Extract pulls an embedded curl block out of text. Two openers are
// recognised, whichever comes first:
//
//	curl```-s https://example.com```
//	```curl
//	-s https://example.com
//	```
//
// When present the result is "curl " followed by the block interior, up to
// the next fence. A Markdown block whose body already starts with the curl
// word is returned as written. Otherwise text is returned unchanged.
func Extract(text string) string {
	compact := strings.Index(text, ProgramName+fence)
	markdown := markdownOpener(text)

	var body string
	var tagged bool
	switch {
	case compact >= 0 && (markdown < 0 || compact < markdown):
		body = text[compact+len(ProgramName+fence):]
	case markdown >= 0:
		body = text[markdown+len(fence+ProgramName):]
		tagged = true
	default:
		return text
	}

	end := strings.Index(body, fence)
	if end < 0 {
		return text
	}
	body = body[:end]

	if tagged {
		if trimmed := strings.TrimSpace(body); startsWithProgram(trimmed) {
			return trimmed
		}
	}
	return ProgramName + " " + body
}

// markdownOpener finds "```curl" followed by a line break or blank, so that
// tags like "```curlrc" are not taken for curl blocks.
func markdownOpener(text string) int {
	open := fence + ProgramName
	offset := 0
	for {
		i := strings.Index(text[offset:], open)
		if i < 0 {
			return -1
		}
		i += offset
		after := i + len(open)
		if after < len(text) && isSpace(text[after]) {
			return i
		}
		offset = i + len(fence)
	}
}

func startsWithProgram(s string) bool {
	return strings.HasPrefix(s, ProgramName) &&
		(len(s) == len(ProgramName) || isSpace(s[len(ProgramName)]))
}
