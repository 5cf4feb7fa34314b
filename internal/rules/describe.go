package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Describe renders cfg as a markdown document listing the rules in the
// order they are evaluated.
func Describe(cfg Config) string {
	var b strings.Builder

	b.WriteString("# Branch naming rules\n\n")
	fmt.Fprintf(&b, "Names are lowercased: **%t**. Disallowed characters become `%s`. Maximum length: **%d**.\n\n",
		cfg.General.Lowercase, cfg.General.NonAlnumReplacement, cfg.General.MaxLength)

	b.WriteString("## 1. Source branch rules\n\n")
	if len(cfg.RulesBySourceBranch) == 0 {
		b.WriteString("_None configured._\n\n")
	} else {
		b.WriteString("| # | Name | Match | Prefix | Template | State |\n|---|---|---|---|---|---|\n")
		for i, r := range cfg.RulesBySourceBranch {
			mt := r.MatchType
			if mt != MatchRegex {
				mt = MatchGlob
			}
			status := ""
			if err := PatternError(r.MatchType, r.Match); err != nil {
				status = " (invalid, never matches)"
			}
			fmt.Fprintf(&b, "| %d | %s | %s `%s`%s | `%s` | `%s` | %s |\n",
				i+1, cell(r.Name), mt, cell(r.Match), status, cell(r.Prefix), cell(r.Template), describeState(r.WorkItemState))
		}
		b.WriteString("\n")
	}

	b.WriteString("## 2. Work item type rules\n\n")
	if len(cfg.RulesByWorkItemType) == 0 {
		b.WriteString("_None configured._\n\n")
	} else {
		b.WriteString("| # | Type | Prefix | Template | State |\n|---|---|---|---|---|\n")
		for i, r := range cfg.RulesByWorkItemType {
			fmt.Fprintf(&b, "| %d | %s | `%s` | `%s` | %s |\n",
				i+1, cell(r.WorkItemType), cell(r.Prefix), cell(r.Template), describeState(r.WorkItemState))
		}
		b.WriteString("\n")
	}

	b.WriteString("## 3. Default\n\n")
	fmt.Fprintf(&b, "Template `%s`, state %s.\n", cell(cfg.Defaults.Template), describeState(cfg.Defaults.WorkItemState))

	if len(cfg.RepoOverrides) > 0 {
		b.WriteString("\n### Repository overrides\n\n")
		repos := make([]string, 0, len(cfg.RepoOverrides))
		for repo := range cfg.RepoOverrides {
			repos = append(repos, repo)
		}
		sort.Strings(repos)
		for _, repo := range repos {
			o := cfg.RepoOverrides[repo]
			fmt.Fprintf(&b, "- **%s**: template `%s`, state %s\n", repo, cell(o.DefaultTemplate), describeState(o.WorkItemState))
		}
	}
	return b.String()
}

func describeState(s *StateDirective) string {
	if s == nil || !s.Enabled {
		return "unchanged"
	}
	return "→ " + s.State
}

// cell keeps table cells on one row.
func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
