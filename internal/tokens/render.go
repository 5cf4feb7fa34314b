// Package tokens renders branch name templates such as
// "{prefix}{wi.id}-{wi.title}" from a work item snapshot.
//
// The token vocabulary is persisted inside user-authored templates, so the
// names in this file must stay stable across releases.
package tokens

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WorkItem is a read-only snapshot of a tracked work item. Only ID, Title,
// Type, State and AssignedTo are available to templates; the remaining
// fields are carried for display.
type WorkItem struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	State         string    `json:"state"`
	AssignedTo    string    `json:"assigned_to,omitempty"`
	IterationPath string    `json:"iteration_path,omitempty"`
	AreaPath      string    `json:"area_path,omitempty"`
	ChangedDate   time.Time `json:"changed_date,omitzero"`
	TypeIcon      string    `json:"type_icon,omitempty"`
	TypeColor     string    `json:"type_color,omitempty"`
}

// Context is everything a template can reference.
type Context struct {
	WorkItem WorkItem
	Prefix   string
}

// Token identifies one entry of the template vocabulary.
type Token int

const (
	Unknown Token = iota
	WorkItemID
	WorkItemTitle
	WorkItemType
	WorkItemState
	WorkItemAssignedTo
	Prefix
)

var tokenNames = map[string]Token{
	"wi.id":         WorkItemID,
	"wi.title":      WorkItemTitle,
	"wi.type":       WorkItemType,
	"wi.state":      WorkItemState,
	"wi.assignedTo": WorkItemAssignedTo,
	"prefix":        Prefix,
}

// placeholderRe matches {identifier} where identifier is any run of
// characters other than '}'.
var placeholderRe = regexp.MustCompile(`\{([^}]+)\}`)

// Lookup maps a placeholder name to its token. Surrounding whitespace is
// ignored; matching is exact otherwise.
func Lookup(name string) Token {
	return tokenNames[strings.TrimSpace(name)]
}

// Value resolves the token against ctx. Unknown tokens resolve to "".
func (t Token) Value(ctx Context) string {
	switch t {
	case WorkItemID:
		return strconv.Itoa(ctx.WorkItem.ID)
	case WorkItemTitle:
		return ctx.WorkItem.Title
	case WorkItemType:
		return ctx.WorkItem.Type
	case WorkItemState:
		return ctx.WorkItem.State
	case WorkItemAssignedTo:
		return ctx.WorkItem.AssignedTo
	case Prefix:
		return ctx.Prefix
	default:
		return ""
	}
}

// Render substitutes every {token} in template. Tokens outside the
// vocabulary render as the empty string; braces that do not form a
// placeholder are left as they are. The title is inserted unsanitized.
func Render(template string, ctx Context) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		return Lookup(match[1 : len(match)-1]).Value(ctx)
	})
}

// Known returns the template vocabulary in sorted order.
func Known() []string {
	names := make([]string, 0, len(tokenNames))
	for name := range tokenNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownIn returns the placeholders in template that are not part of the
// vocabulary, in order of first appearance.
func UnknownIn(template string) []string {
	var unknown []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := strings.TrimSpace(m[1])
		if Lookup(name) != Unknown || seen[name] {
			continue
		}
		seen[name] = true
		unknown = append(unknown, name)
	}
	return unknown
}
