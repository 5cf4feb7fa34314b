package rules

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// matcher tests a source branch against one rule's pattern.
type matcher interface {
	Match(branch string) bool
}

type globMatcher struct{ g glob.Glob }

func (m globMatcher) Match(branch string) bool {
	return m.g.Match(strings.ToLower(branch))
}

type regexMatcher struct{ re *regexp.Regexp }

func (m regexMatcher) Match(branch string) bool {
	return m.re.MatchString(branch)
}

// noMatch stands in for patterns that failed to compile.
type noMatch struct{}

func (noMatch) Match(string) bool { return false }

// compileMatcher builds the matcher for a rule. Anything other than
// MatchRegex is treated as a glob. Compile errors yield a matcher that
// never matches.
func compileMatcher(t MatchType, pattern string) matcher {
	if t == MatchRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return noMatch{}
		}
		return regexMatcher{re: re}
	}
	// No separators: '*' is allowed to cross '/'.
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return noMatch{}
	}
	return globMatcher{g: g}
}

// PatternError reports whether pattern fails to compile for t, for config
// diagnostics. Resolution itself never surfaces this.
func PatternError(t MatchType, pattern string) error {
	if t == MatchRegex {
		_, err := regexp.Compile(pattern)
		return err
	}
	_, err := glob.Compile(strings.ToLower(pattern))
	return err
}
