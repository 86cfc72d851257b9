package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single quoted header",
			input: "curl -H 'Accept: text' http://a",
			want:  []string{"curl", "-H", "Accept: text", "http://a"},
		},
		{
			name:  "double quotes honour escapes",
			input: `curl -d "{\"a\":1}" https://x`,
			want:  []string{"curl", "-d", `{"a":1}`, "https://x"},
		},
		{
			name:  "backslash is literal in single quotes",
			input: `curl -d 'a\nb' https://x`,
			want:  []string{"curl", "-d", `a\nb`, "https://x"},
		},
		{
			name:  "unquoted escape of space joins words",
			input: `curl -H X-Name:\ value https://x`,
			want:  []string{"curl", "-H", "X-Name: value", "https://x"},
		},
		{
			name:  "adjacent quoted segments form one token",
			input: `curl -H 'Accept: '"application/json" https://x`,
			want:  []string{"curl", "-H", "Accept: application/json", "https://x"},
		},
		{
			name:  "explicit empty tokens",
			input: `curl "" ''`,
			want:  []string{"curl", "", ""},
		},
		{
			name:  "consecutive whitespace",
			input: "  curl \t\n -s   https://x  ",
			want:  []string{"curl", "-s", "https://x"},
		},
		{
			name:  "whitespace only",
			input: " \t\n ",
			want:  nil,
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "trailing backslash kept literally",
			input: `curl https://x\`,
			want:  []string{"curl", `https://x\`},
		},
		{
			name:  "quote characters of the other kind are literal",
			input: `curl -H "it's" -d 'say "hi"' https://x`,
			want:  []string{"curl", "-H", "it's", "-d", `say "hi"`, "https://x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeUnclosedQuote(t *testing.T) {
	for _, input := range []string{
		`curl -H 'Accept: text http://a`,
		`curl -d "abc`,
		`curl -d "abc\"`,
		`'`,
	} {
		t.Run(input, func(t *testing.T) {
			tokens, err := Tokenize(input)
			require.Error(t, err)
			assert.Nil(t, tokens)

			var lexErr *LexError
			require.True(t, errors.As(err, &lexErr))
			assert.Equal(t, "unclosed quote", lexErr.Reason)
		})
	}
}

func TestTokenizeReportsQuoteOffset(t *testing.T) {
	_, err := Tokenize(`curl -d "x" -H 'oops`)
	var lexErr *LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, 15, lexErr.Offset)
}

// Re-joining tokens of plainly-quoted text preserves the non-whitespace
// content in order.
func TestTokenizeRoundTripsContent(t *testing.T) {
	inputs := []string{
		"curl -s -L https://example.com/a?b=c",
		"curl   -H 'X-A: 1'   -H \"X-B: 2\" http://h",
		"curl\t-X POST\n-d 'k=v' https://h/p",
	}
	squash := func(s string) string {
		s = strings.NewReplacer("'", "", `"`, "").Replace(s)
		return strings.Join(strings.Fields(s), "")
	}

	for _, input := range inputs {
		tokens, err := Tokenize(input)
		require.NoError(t, err)
		assert.Equal(t, squash(input), squash(strings.Join(tokens, " ")), input)
	}
}

func TestTokenizeKeepsBytesVerbatim(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"invalid utf-8 unquoted", "curl -d \xff\xfe https://x", []string{"curl", "-d", "\xff\xfe", "https://x"}},
		{"invalid utf-8 in double quotes", "curl -d \"a\xffb\" https://x", []string{"curl", "-d", "a\xffb", "https://x"}},
		{"invalid utf-8 in single quotes", "curl -d '\xc3' https://x", []string{"curl", "-d", "\xc3", "https://x"}},
		{"escaped multibyte rune", `curl -d \é https://x`, []string{"curl", "-d", "é", "https://x"}},
		{"multibyte inside double quotes", `curl -H "X-Name: naïve" https://x`, []string{"curl", "-H", "X-Name: naïve", "https://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tokens)
		})
	}
}
