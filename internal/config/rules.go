package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/rules"
	"github.com/joestump/branchsmith/internal/tokens"
)

// Recommended bounds for general.maxLength.
const (
	MinRecommendedLength = 20
	MaxRecommendedLength = branchname.HardMaxLength
)

// DefaultRules returns the built-in rules configuration as a generic map.
// Every call returns a fresh copy.
func DefaultRules() map[string]any {
	return map[string]any{
		"general": map[string]any{
			"lowercase":               true,
			"nonAlnumReplacement":     "-",
			"maxLength":               80,
			"allowManualNameOverride": true,
			"language":                "en",
		},
		"defaults": map[string]any{
			"template": "feature/{wi.id}-{wi.title}",
		},
		"repoOverrides":       map[string]any{},
		"rulesBySourceBranch": []any{},
		"rulesByWorkItemType": []any{
			map[string]any{
				"workItemType": "Bug",
				"prefix":       "bugfix/",
				"template":     "{prefix}{wi.id}-{wi.title}",
			},
		},
	}
}

// ParseRules parses a YAML (or JSON) rules document into a generic map and
// applies schema migrations. Empty input yields an empty map.
func ParseRules(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	migrateLegacy(raw)
	return raw, nil
}

// migrateLegacy renames keys written by older versions in place.
func migrateLegacy(raw map[string]any) {
	general, ok := raw["general"].(map[string]any)
	if !ok {
		return
	}
	old, ok := general["replaceChar"]
	if !ok {
		return
	}
	if _, set := general["nonAlnumReplacement"]; !set {
		general["nonAlnumReplacement"] = old
	}
	delete(general, "replaceChar")
}

// MergeRules layers each override over the defaults, in order. Objects are
// merged recursively; arrays and scalars are replaced wholesale.
func MergeRules(overrides ...map[string]any) map[string]any {
	merged := DefaultRules()
	for _, o := range overrides {
		merged = mergeConfigMaps(merged, o)
	}
	return merged
}

// DecodeRules converts a merged map into a typed rules configuration.
func DecodeRules(raw map[string]any) (rules.Config, error) {
	var cfg rules.Config
	data, err := yaml.Marshal(raw)
	if err != nil {
		return cfg, fmt.Errorf("decode rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode rules: %w", err)
	}
	return cfg, nil
}

// LoadRules reads the rules file at path (missing or empty path means
// defaults only), layers stored over it and decodes the result. stored
// takes precedence over the file.
func LoadRules(path string, stored map[string]any) (rules.Config, error) {
	var file map[string]any
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return rules.Config{}, fmt.Errorf("read rules file: %w", err)
		default:
			file, err = ParseRules(data)
			if err != nil {
				return rules.Config{}, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if stored != nil {
		migrateLegacy(stored)
	}
	return DecodeRules(MergeRules(file, stored))
}

// ValidateRules reports problems that would make cfg behave unexpectedly.
// None of them prevent the engine from working.
func ValidateRules(cfg rules.Config) []string {
	var warnings []string

	if n := cfg.General.MaxLength; n > 0 && (n < MinRecommendedLength || n > MaxRecommendedLength) {
		warnings = append(warnings, fmt.Sprintf("general.maxLength %d is outside the recommended range %d-%d",
			n, MinRecommendedLength, MaxRecommendedLength))
	}
	if r := cfg.General.NonAlnumReplacement; len([]rune(r)) > 1 {
		warnings = append(warnings, fmt.Sprintf("general.nonAlnumReplacement %q should be a single character", r))
	}
	// Truncation only trims the replacement, so a title cut next to a
	// template "-" leaves a name Validate rejects.
	if r := cfg.General.NonAlnumReplacement; r != "-" && cfg.General.MaxLength > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"general.nonAlnumReplacement %q: titles cut at maxLength can end in \"-\", which fails validation", r))
	}
	if cfg.Defaults.Template == "" {
		warnings = append(warnings, "defaults.template is empty")
	}
	warnings = append(warnings, unknownTokenWarnings("defaults.template", cfg.Defaults.Template)...)

	for repo, o := range cfg.RepoOverrides {
		warnings = append(warnings, unknownTokenWarnings(fmt.Sprintf("repoOverrides[%s].defaultTemplate", repo), o.DefaultTemplate)...)
	}
	for i, r := range cfg.RulesBySourceBranch {
		field := fmt.Sprintf("rulesBySourceBranch[%d]", i)
		if r.MatchType != "" && r.MatchType != rules.MatchGlob && r.MatchType != rules.MatchRegex {
			warnings = append(warnings, fmt.Sprintf("%s (%s): unknown matchType %q, treated as glob", field, r.Name, r.MatchType))
		}
		if err := rules.PatternError(r.MatchType, r.Match); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s (%s): pattern %q never matches: %v", field, r.Name, r.Match, err))
		}
		warnings = append(warnings, unknownTokenWarnings(field+".template", r.Template)...)
	}
	for i, r := range cfg.RulesByWorkItemType {
		warnings = append(warnings, unknownTokenWarnings(fmt.Sprintf("rulesByWorkItemType[%d].template", i), r.Template)...)
	}
	return warnings
}

func unknownTokenWarnings(field, template string) []string {
	var out []string
	for _, name := range tokens.UnknownIn(template) {
		out = append(out, fmt.Sprintf("%s: unknown token {%s} renders as empty", field, name))
	}
	return out
}

// mergeConfigMaps merges override into base recursively.
func mergeConfigMaps(base map[string]any, override map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	merged := cloneConfigMap(base)
	for key, value := range override {
		overrideMap, ok := value.(map[string]any)
		if !ok {
			merged[key] = value
			continue
		}
		if baseMap, ok := merged[key].(map[string]any); ok {
			merged[key] = mergeConfigMaps(baseMap, overrideMap)
			continue
		}
		merged[key] = cloneConfigMap(overrideMap)
	}
	return merged
}

// cloneConfigMap copies a map recursively to prevent aliasing.
func cloneConfigMap(values map[string]any) map[string]any {
	clone := make(map[string]any, len(values))
	for key, value := range values {
		if nested, ok := value.(map[string]any); ok {
			clone[key] = cloneConfigMap(nested)
			continue
		}
		clone[key] = value
	}
	return clone
}
