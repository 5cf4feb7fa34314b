package gitprovider

import (
	"strings"
	"time"
	"unicode"

	"github.com/joestump/branchsmith/internal/tokens"
)

// typeLabels are issue labels recognized as work item types, in priority
// order. Issues carrying none of them have type DefaultIssueType.
var typeLabels = []string{"bug", "feature", "task", "user story", "epic"}

// DefaultIssueType is the work item type of an issue without a type label.
const DefaultIssueType = "Issue"

// issue is the provider-neutral subset of an issue both APIs return.
type issue struct {
	Number    int
	Title     string
	State     string
	Labels    []string
	Assignees []string
	UpdatedAt time.Time
}

func (i issue) workItem() *tokens.WorkItem {
	wi := &tokens.WorkItem{
		ID:          i.Number,
		Title:       i.Title,
		Type:        issueType(i.Labels),
		State:       i.State,
		ChangedDate: i.UpdatedAt,
	}
	if len(i.Assignees) > 0 {
		wi.AssignedTo = i.Assignees[0]
	}
	return wi
}

// issueType returns the title-cased first type label present in labels.
func issueType(labels []string) string {
	have := make(map[string]bool, len(labels))
	for _, l := range labels {
		have[strings.ToLower(strings.TrimSpace(l))] = true
	}
	for _, t := range typeLabels {
		if have[t] {
			return titleCase(t)
		}
	}
	return DefaultIssueType
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// isIssueState reports whether state is a native open/closed issue state
// rather than one applied as a label.
func isIssueState(state string) bool {
	s := strings.ToLower(state)
	return s == "open" || s == "closed"
}
