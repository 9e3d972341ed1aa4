// Package secretredact scrubs credentials (api_secret, bearer tokens) out of
// text before it reaches a log line, grounded on the CompiledPattern shape
// used for structured redaction elsewhere in the stack.
package secretredact

import (
	"regexp"
	"strings"
)

// CompiledPattern holds a pre-compiled regex and its replacement text.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

var builtinPatterns = []CompiledPattern{
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]+`),
		Replacement: "Bearer ***",
	},
	{
		Name:        "oauth_access_token_field",
		Regex:       regexp.MustCompile(`"access_token"\s*:\s*"[^"]*"`),
		Replacement: `"access_token":"***"`,
	},
	{
		Name:        "client_secret_field",
		Regex:       regexp.MustCompile(`"?client_secret"?\s*[:=]\s*"?[a-zA-Z0-9._-]+"?`),
		Replacement: "client_secret=***",
	},
}

// Redactor applies the builtin patterns plus any literal value registered
// via Track (the Scheduler tracks the configured api_secret at construction
// and on every SetCredentials call), so that value never reaches a log line.
type Redactor struct {
	patterns []CompiledPattern
	tracked  map[string]struct{}
}

// New returns a Redactor seeded with the builtin patterns.
func New() *Redactor {
	return &Redactor{patterns: builtinPatterns, tracked: make(map[string]struct{})}
}

// Track registers a literal secret value (e.g. the configured api_secret) for
// exact-match replacement in addition to the builtin regex patterns.
func (r *Redactor) Track(secret string) {
	if secret == "" {
		return
	}
	r.tracked[secret] = struct{}{}
}

// Redact returns s with every known secret pattern and tracked literal value
// replaced. Safe to call on text with nothing to redact.
func (r *Redactor) Redact(s string) string {
	out := s
	for secret := range r.tracked {
		out = strings.ReplaceAll(out, secret, "***")
	}
	for _, p := range r.patterns {
		out = p.Regex.ReplaceAllString(out, p.Replacement)
	}
	return out
}
