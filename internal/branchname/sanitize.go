// Package branchname turns raw candidate strings into legal branch names,
// checks names against the ref naming rules of the hosting platform and
// derives available names when the desired one is taken.
package branchname

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Options controls Sanitize.
type Options struct {
	Lowercase   bool
	Replacement string // single character, or empty to delete disallowed characters
	MaxLength   int    // <= 0 disables truncation
}

// idNameRe matches "<segment>/<digits>-<tail>" with the leading segment
// optional. The segment and the work item id are kept verbatim when the
// name has to be shortened.
var idNameRe = regexp.MustCompile(`^([^/]+/)?(\d+)-(.*)$`)

func isAllowed(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '.' || r == '-'
}

// SanitizeSegment cleans a single '/'-free path segment: characters outside
// [A-Za-z0-9_.-] become replacement, runs of replacement collapse to one,
// and replacement characters and dots are stripped from both ends.
func SanitizeSegment(value, replacement string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if isAllowed(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(replacement)
	}
	out := b.String()
	if replacement != "" {
		double := replacement + replacement
		for strings.Contains(out, double) {
			out = strings.ReplaceAll(out, double, replacement)
		}
	}
	return strings.Trim(out, "."+replacement)
}

// Sanitize normalizes name into a branch name. Each '/' segment is
// sanitized on its own and empty segments are dropped. The result is
// lowercased when requested and truncated to opts.MaxLength.
func Sanitize(name string, opts Options) string {
	parts := strings.Split(name, "/")
	kept := parts[:0]
	for _, p := range parts {
		if s := SanitizeSegment(p, opts.Replacement); s != "" {
			kept = append(kept, s)
		}
	}
	out := strings.Join(kept, "/")
	if opts.Lowercase {
		out = strings.ToLower(out)
	}
	if opts.MaxLength > 0 && len(out) > opts.MaxLength {
		out = Truncate(out, opts.MaxLength, opts.Replacement)
	}
	return out
}

// Truncate shortens name to at most maxLength bytes.
//
// Names shaped like "<segment>/<id>-<title>" keep the segment and id intact
// and lose characters from the title only. When the segment and id alone
// do not fit, or the name has no id, the name is cut at maxLength. Cut
// points never leave a trailing separator, dot or slash behind.
func Truncate(name string, maxLength int, replacement string) string {
	if maxLength <= 0 || len(name) <= maxLength {
		return name
	}
	trailing := "./" + replacement

	if m := idNameRe.FindStringSubmatch(name); m != nil {
		head := m[1] + m[2] + "-"
		if len(head) <= maxLength {
			tail := strings.TrimRight(cut(m[3], maxLength-len(head)), trailing)
			if tail == "" {
				// Nothing of the title survives; drop the dangling separator.
				return strings.TrimRight(head, trailing)
			}
			return head + tail
		}
	}
	return strings.TrimRight(cut(name, maxLength), trailing)
}

// cut returns the longest prefix of s that is at most n bytes and does not
// split a multi-byte rune.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
