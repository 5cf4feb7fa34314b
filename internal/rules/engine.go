package rules

import (
	"strings"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/tokens"
)

// Engine resolves rules and computes branch names for one Config. It is
// immutable after New and safe for concurrent use.
type Engine struct {
	cfg      Config
	matchers []matcher // parallel to cfg.RulesBySourceBranch
}

// Computed is a branch name together with the rule that produced it.
type Computed struct {
	BranchName string       `json:"branchName"`
	Rule       ResolvedRule `json:"rule"`
}

// New compiles the source-branch patterns of cfg once.
func New(cfg Config) *Engine {
	e := &Engine{
		cfg:      cfg,
		matchers: make([]matcher, len(cfg.RulesBySourceBranch)),
	}
	for i, r := range cfg.RulesBySourceBranch {
		e.matchers[i] = compileMatcher(r.MatchType, r.Match)
	}
	return e
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() Config { return e.cfg }

// ForRepository returns an engine whose default tier reflects the override
// registered for repo, if any. Only the default tier is affected.
func (e *Engine) ForRepository(repo string) *Engine {
	o, ok := e.cfg.RepoOverrides[repo]
	if !ok {
		return e
	}
	cfg := e.cfg
	if o.DefaultTemplate != "" {
		cfg.Defaults.Template = o.DefaultTemplate
	}
	if o.WorkItemState != nil {
		cfg.Defaults.WorkItemState = o.WorkItemState
	}
	return &Engine{cfg: cfg, matchers: e.matchers}
}

// ResolveRule picks the rule for a source branch and work item type.
// It always returns a rule; when nothing matches, the default tier applies.
// sourceBranch is matched exactly as given, so a "refs/heads/" prefix is
// part of the matched text.
func (e *Engine) ResolveRule(sourceBranch, workItemType string) ResolvedRule {
	for i, r := range e.cfg.RulesBySourceBranch {
		if !e.matchers[i].Match(sourceBranch) {
			continue
		}
		return ResolvedRule{
			Template:        r.Template,
			Prefix:          r.Prefix,
			WorkItemState:   r.WorkItemState,
			MatchedRuleName: r.Name,
		}
	}

	for _, r := range e.cfg.RulesByWorkItemType {
		if !strings.EqualFold(r.WorkItemType, workItemType) {
			continue
		}
		return ResolvedRule{
			Template:        r.Template,
			Prefix:          r.Prefix,
			WorkItemState:   r.WorkItemState,
			MatchedRuleName: "WI type: " + r.WorkItemType,
		}
	}

	return ResolvedRule{
		Template:        e.cfg.Defaults.Template,
		WorkItemState:   e.cfg.Defaults.WorkItemState,
		MatchedRuleName: DefaultRuleName,
	}
}

// ComputeBranchName renders and sanitizes the branch name for wi.
func (e *Engine) ComputeBranchName(wi tokens.WorkItem, sourceBranch string) string {
	return e.ComputeWithRule(wi, sourceBranch).BranchName
}

// ComputeWithRule is ComputeBranchName that also returns the resolved rule,
// so callers can act on its state directive without resolving again.
func (e *Engine) ComputeWithRule(wi tokens.WorkItem, sourceBranch string) Computed {
	rule := e.ResolveRule(sourceBranch, wi.Type)
	raw := tokens.Render(rule.Template, tokens.Context{WorkItem: wi, Prefix: rule.Prefix})
	return Computed{
		BranchName: branchname.Sanitize(raw, e.SanitizeOptions()),
		Rule:       rule,
	}
}

// SanitizeOptions maps the general settings onto the sanitizer options.
func (e *Engine) SanitizeOptions() branchname.Options {
	return branchname.Options{
		Lowercase:   e.cfg.General.Lowercase,
		Replacement: e.cfg.General.NonAlnumReplacement,
		MaxLength:   e.cfg.General.MaxLength,
	}
}
