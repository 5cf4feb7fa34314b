package branchname

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HardMaxLength is the longest branch name the hosting platform accepts,
// independent of the configured soft limit.
const HardMaxLength = 250

// forbiddenChars are rejected anywhere in a ref name by git.
const forbiddenChars = `~^:?*[\`

// Validation is the outcome of Validate. Warnings never affect Valid.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks name against the platform's ref naming rules. All
// violations are reported; maxLength is the configured soft limit and only
// produces a warning.
func Validate(name string, maxLength int) Validation {
	v := Validation{Errors: []string{}, Warnings: []string{}}
	length := utf8.RuneCountInString(name)

	if strings.TrimSpace(name) == "" {
		v.Errors = append(v.Errors, "Branch name cannot be empty")
	}
	if maxLength > 0 && length > maxLength {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Branch name is %d characters long, longer than the configured maximum of %d", length, maxLength))
	}
	if length > HardMaxLength {
		v.Errors = append(v.Errors, fmt.Sprintf("Branch name is %d characters long; the limit is %d", length, HardMaxLength))
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		v.Errors = append(v.Errors, "Branch name cannot contain spaces or other whitespace")
	}
	if strings.Contains(name, "..") {
		v.Errors = append(v.Errors, `Branch name cannot contain ".."`)
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		v.Errors = append(v.Errors, `Branch name cannot start or end with "-"`)
	}
	if strings.ContainsAny(name, forbiddenChars) {
		v.Errors = append(v.Errors, `Branch name cannot contain any of ~ ^ : ? * [ \`)
	}
	if strings.HasSuffix(name, ".lock") {
		v.Errors = append(v.Errors, `Branch name cannot end with ".lock"`)
	}

	v.Valid = len(v.Errors) == 0
	return v
}
