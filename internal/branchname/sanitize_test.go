package branchname

import (
	"strings"
	"testing"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		value       string
		replacement string
		want        string
	}{
		{"Fix login bug", "-", "Fix-login-bug"},
		{"Hello!!!  World??", "-", "Hello-World"},
		{"  leading and trailing  ", "-", "leading-and-trailing"},
		{"...dots...", "-", "dots"},
		{"-.-mixed-.-", "-", "mixed"},
		{"under_score.ok-1", "-", "under_score.ok-1"},
		{"Fix login bug", "", "Fixloginbug"},
		{"a  b", "_", "a_b"},
		{"äöü", "-", ""},
		{"v1.2 release", "_", "v1.2_release"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := SanitizeSegment(tt.value, tt.replacement)
			if got != tt.want {
				t.Errorf("SanitizeSegment(%q, %q) = %q, want %q", tt.value, tt.replacement, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	lower := Options{Lowercase: true, Replacement: "-", MaxLength: 80}
	tests := []struct {
		name string
		in   string
		opts Options
		want string
	}{
		{"hotfix scenario", "hotfix/42-Fix login bug", lower, "hotfix/42-fix-login-bug"},
		{"keeps case", "feature/42-Fix login bug", Options{Replacement: "-", MaxLength: 80}, "feature/42-Fix-login-bug"},
		{"drops empty segments", "/feature//!!/42-x/", lower, "feature/42-x"},
		{"empty input", "", lower, ""},
		{"only junk", "???/!!!", lower, ""},
		{"delete disallowed", "feature/42 Fix Bug", Options{Lowercase: true, MaxLength: 80}, "feature/42fixbug"},
		{"no limit", strings.Repeat("a", 300), Options{Replacement: "-"}, strings.Repeat("a", 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in, tt.opts)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate_PreservesID(t *testing.T) {
	name := "feature/12345-this-is-a-very-long-title-that-goes-on"
	got := Truncate(name, 30, "-")
	if !strings.HasPrefix(got, "feature/12345-") {
		t.Errorf("Truncate(%q, 30) = %q, want prefix feature/12345-", name, got)
	}
	if len(got) > 30 {
		t.Errorf("Truncate(%q, 30) has length %d", name, len(got))
	}
	if got != "feature/12345-this-is-a-very-l" {
		t.Errorf("Truncate(%q, 30) = %q", name, got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"fits", "feature/1-x", 20, "feature/1-x"},
		{"strips trailing separator in tail", "feature/1-abc-def", 14, "feature/1-abc"},
		{"id without leading segment", "12345-some-long-title", 12, "12345-some-l"},
		{"only id survives", "feature/12345-title", 14, "feature/12345"},
		{"head too long hard cut", "verylongprefix/12345-title", 10, "verylongpr"},
		{"hard cut never ends in slash", "verylongprefix/12345-title", 15, "verylongprefix"},
		{"no id pattern", "feature/some-long-title-here", 16, "feature/some-lon"},
		{"no id pattern strips separator", "feature/some-long-title", 13, "feature/some"},
		{"nested tail", "team/42-a/b-c-d", 10, "team/42-a"},
		{"zero disables", "feature/abc", 0, "feature/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max, "-")
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

// When the leading segment and id alone exceed the limit, the name is cut at
// the limit and trailing separators are trimmed so the result is stable
// under a second Truncate.
func TestTruncate_HardCutTrimsSeparators(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		max         int
		replacement string
		want        string
	}{
		{"cut lands after slash", "release-2024/12345-title", 13, "-", "release-2024"},
		{"cut lands after replacement", "a-b-c-d-e-f/99-x", 2, "-", "a"},
		{"cut lands after dot", "v1.2.3/77-x", 5, "-", "v1.2"},
		{"custom replacement trimmed", "ab_cd/1-x", 3, "_", "ab"},
		{"clean cut kept whole", "abcdefgh/1-x", 4, "-", "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max, tt.replacement)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d, %q) = %q, want %q", tt.in, tt.max, tt.replacement, got, tt.want)
			}
			if again := Truncate(got, tt.max, tt.replacement); again != got {
				t.Errorf("Truncate not stable: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"feature/12345-this-is-a-very-long-title-that-goes-on",
		"hotfix/42-Fix login bug",
		"Release 1.0 / Hot..fix!!",
		"bugfix/9-" + strings.Repeat("word ", 40),
		"a/b/c/d/e/f/g/h/i/j/k/l/m/n/o/p",
		"verylongprefixwithoutanyslashes-and-no-id-at-all",
		"x/1-",
		"team.name/77-title.with.dots.everywhere",
		"  --  ",
		"ÜBER/123-Größe",
	}
	configs := []Options{
		{Lowercase: true, Replacement: "-", MaxLength: 30},
		{Lowercase: false, Replacement: "_", MaxLength: 20},
		{Lowercase: true, Replacement: "", MaxLength: 12},
		{Lowercase: true, Replacement: "-", MaxLength: 1},
		{Lowercase: true, Replacement: "-", MaxLength: 250},
	}
	for _, opts := range configs {
		for _, in := range inputs {
			once := Sanitize(in, opts)
			if len(once) > opts.MaxLength {
				t.Errorf("len(Sanitize(%q, %+v)) = %d > %d", in, opts, len(once), opts.MaxLength)
			}
			if twice := Sanitize(once, opts); twice != once {
				t.Errorf("Sanitize not idempotent for %q with %+v: %q then %q", in, opts, once, twice)
			}
		}
	}
}
