// Package rules selects the naming rule for a branch and computes the
// branch name from it.
//
// Rules are evaluated in three tiers: source-branch rules, then work item
// type rules, then the configured default. Within a tier the first match
// wins.
package rules

// MatchType selects how a SourceBranchRule pattern is interpreted.
type MatchType string

const (
	// MatchGlob is a case-insensitive shell glob in which '*' also spans '/'.
	MatchGlob MatchType = "glob"
	// MatchRegex is an unanchored, case-sensitive regular expression.
	MatchRegex MatchType = "regex"
)

// StateDirective requests a work item state transition after the branch is
// created. The engine only reports it.
type StateDirective struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	State   string `json:"state" yaml:"state"`
}

// General holds the name formatting settings.
type General struct {
	Lowercase               bool   `json:"lowercase" yaml:"lowercase"`
	NonAlnumReplacement     string `json:"nonAlnumReplacement" yaml:"nonAlnumReplacement"`
	MaxLength               int    `json:"maxLength" yaml:"maxLength"`
	AllowManualNameOverride bool   `json:"allowManualNameOverride" yaml:"allowManualNameOverride"`
	Language                string `json:"language" yaml:"language"`
}

// Defaults is the last tier of rule resolution.
type Defaults struct {
	Template      string          `json:"template" yaml:"template"`
	WorkItemState *StateDirective `json:"workItemState,omitempty" yaml:"workItemState,omitempty"`
}

// RepoOverride replaces parts of Defaults for one repository.
type RepoOverride struct {
	DefaultTemplate string          `json:"defaultTemplate,omitempty" yaml:"defaultTemplate,omitempty"`
	WorkItemState   *StateDirective `json:"workItemState,omitempty" yaml:"workItemState,omitempty"`
}

// SourceBranchRule matches on the branch the new branch is created from.
type SourceBranchRule struct {
	Name          string          `json:"name" yaml:"name"`
	MatchType     MatchType       `json:"matchType" yaml:"matchType"`
	Match         string          `json:"match" yaml:"match"`
	Prefix        string          `json:"prefix" yaml:"prefix"`
	Template      string          `json:"template" yaml:"template"`
	WorkItemState *StateDirective `json:"workItemState,omitempty" yaml:"workItemState,omitempty"`
}

// WorkItemTypeRule matches on the work item type, ignoring case.
type WorkItemTypeRule struct {
	WorkItemType  string          `json:"workItemType" yaml:"workItemType"`
	Prefix        string          `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Template      string          `json:"template" yaml:"template"`
	WorkItemState *StateDirective `json:"workItemState,omitempty" yaml:"workItemState,omitempty"`
}

// Config is the complete naming configuration. Rule order is significant.
type Config struct {
	General             General                 `json:"general" yaml:"general"`
	Defaults            Defaults                `json:"defaults" yaml:"defaults"`
	RepoOverrides       map[string]RepoOverride `json:"repoOverrides,omitempty" yaml:"repoOverrides,omitempty"`
	RulesBySourceBranch []SourceBranchRule      `json:"rulesBySourceBranch" yaml:"rulesBySourceBranch"`
	RulesByWorkItemType []WorkItemTypeRule      `json:"rulesByWorkItemType" yaml:"rulesByWorkItemType"`
}

// ResolvedRule is the outcome of rule resolution. MatchedRuleName is
// "default" when no rule matched.
type ResolvedRule struct {
	Template        string          `json:"template"`
	Prefix          string          `json:"prefix"`
	WorkItemState   *StateDirective `json:"workItemState,omitempty"`
	MatchedRuleName string          `json:"matchedRuleName"`
}

// DefaultRuleName is reported when resolution falls through to Defaults.
const DefaultRuleName = "default"
