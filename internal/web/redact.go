package web

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// SecretEnvVars are the environment variables whose values never leave the
// process in an API response.
var SecretEnvVars = []string{"GITHUB_TOKEN", "GITEA_TOKEN"}

// Redactor replaces known credential values in outbound text with
// [REDACTED:VAR_NAME] placeholders.
type Redactor struct {
	replacements map[string]string // credential value -> "[REDACTED:VAR_NAME]"
}

// NewRedactor builds a Redactor from the named environment variables. Both
// the raw and URL-encoded forms of each value are replaced. Unset or empty
// variables are skipped.
func NewRedactor(names ...string) *Redactor {
	rd := &Redactor{replacements: make(map[string]string)}
	for _, name := range names {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if len(value) < 4 {
			slog.Warn("secret is shorter than 4 characters; redaction may hit unrelated text", "var", name)
		}
		rd.replacements[value] = "[REDACTED:" + name + "]"
		if encoded := url.QueryEscape(value); encoded != value {
			rd.replacements[encoded] = "[REDACTED:" + name + ":urlencoded]"
		}
	}
	return rd
}

// Redact scrubs every known credential from input. A nil Redactor passes
// input through.
func (rd *Redactor) Redact(input string) string {
	if rd == nil || len(rd.replacements) == 0 {
		return input
	}
	result := input
	for value, placeholder := range rd.replacements {
		result = strings.ReplaceAll(result, value, placeholder)
	}
	return result
}
