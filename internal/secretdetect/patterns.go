package secretdetect

import (
	"regexp"
)

// Credential carriers that show up in curl argument vectors and verbose
// diagnostic streams ("> Authorization: ...", "< Set-Cookie: ...").
var (
	authorizationHeaderRegex = regexp.MustCompile(`(?i)\b(?:proxy-)?authorization\s*:\s*([^"\r\n]+)`)

	cookieHeaderRegex = regexp.MustCompile(`(?i)\b(?:set-)?cookie\s*:\s*([^"\r\n]+)`)

	apiKeyHeaderRegex = regexp.MustCompile(`(?i)\b(?:x-api-key|api-key|x-auth-token|private-token|x-access-token)\s*:\s*([^"\s]+)`)

	bearerTokenRegex = regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9\-._~+/]+=*)`)

	urlUserinfoRegex = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.\-]*://([^/\s:@"]+:[^/\s@"]+)@`)

	// Broad key=value / key: value catch-all; gated by entropy to avoid
	// redacting things like "token: none".
	genericAssignmentRegex = regexp.MustCompile(`(?i)\b[\w\-]*(?:token|secret|passw(?:or)?d|api_?key)[\w\-]*\s*[:=]\s*([^\s"&;,]{8,})`)
)

// Vendor key formats
var (
	// AWS Access Key ID
	awsAccessKeyIDRegex = regexp.MustCompile(`(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`)

	// OpenAI API Key (sk-...)
	openAIRegex = regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`)

	// Anthropic API Key
	anthropicRegex = regexp.MustCompile(`sk-ant-api03-[a-zA-Z0-9_\-]{20,}`)

	// Google API Key
	googleAPIRegex = regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`)

	// GitHub tokens (personal, OAuth, app)
	githubTokenRegex = regexp.MustCompile(`gh[pous]_[a-zA-Z0-9]{36}`)

	// Slack tokens
	slackTokenRegex = regexp.MustCompile(`xox[bp]-[0-9]{10,12}-[0-9]{10,12}-[a-zA-Z0-9\-]{24,}`)
)

// GetDefaultPatterns returns the patterns used to scrub probe logs.
func GetDefaultPatterns() []SecretPattern {
	return []SecretPattern{
		{
			Name:        "Authorization Header",
			Regex:       authorizationHeaderRegex,
			Description: "Value of an Authorization or Proxy-Authorization header",
			Severity:    SeverityCritical,
			ValueGroup:  1,
		},
		{
			Name:        "Cookie Header",
			Regex:       cookieHeaderRegex,
			Description: "Value of a Cookie or Set-Cookie header",
			Severity:    SeverityHigh,
			ValueGroup:  1,
		},
		{
			Name:        "API Key Header",
			Regex:       apiKeyHeaderRegex,
			Description: "Value of a well-known API key header",
			Severity:    SeverityCritical,
			ValueGroup:  1,
		},
		{
			Name:        "Bearer Token",
			Regex:       bearerTokenRegex,
			Description: "Bearer token outside a recognised header",
			Severity:    SeverityHigh,
			ValueGroup:  1,
		},
		{
			Name:        "URL Credentials",
			Regex:       urlUserinfoRegex,
			Description: "user:password embedded in a URL",
			Severity:    SeverityCritical,
			ValueGroup:  1,
		},
		{
			Name:        "Generic Secret Assignment",
			Regex:       genericAssignmentRegex,
			Description: "High-entropy value assigned to a secret-looking key",
			Severity:    SeverityMedium,
			ValueGroup:  1,
			MinEntropy:  DefaultEntropyThreshold,
		},
		{
			Name:        "AWS Access Key ID",
			Regex:       awsAccessKeyIDRegex,
			Description: "AWS Access Key ID",
			Severity:    SeverityHigh,
		},
		{
			Name:        "OpenAI API Key",
			Regex:       openAIRegex,
			Description: "OpenAI API Key starting with sk-",
			Severity:    SeverityCritical,
		},
		{
			Name:        "Anthropic API Key",
			Regex:       anthropicRegex,
			Description: "Anthropic API Key",
			Severity:    SeverityCritical,
		},
		{
			Name:        "Google API Key",
			Regex:       googleAPIRegex,
			Description: "Google Cloud API Key",
			Severity:    SeverityHigh,
		},
		{
			Name:        "GitHub Token",
			Regex:       githubTokenRegex,
			Description: "GitHub personal, OAuth or app token",
			Severity:    SeverityCritical,
		},
		{
			Name:        "Slack Token",
			Regex:       slackTokenRegex,
			Description: "Slack bot or user token",
			Severity:    SeverityHigh,
		},
	}
}
