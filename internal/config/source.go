package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joestump/branchsmith/internal/rules"
)

// StoredRulesKey is the config table key holding the stored rules override.
const StoredRulesKey = "rules"

// KV is the persistence the rules source needs. *db.DB satisfies it.
type KV interface {
	GetConfig(ctx context.Context, key, fallback string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Source produces the effective rules configuration: built-in defaults,
// then the rules file, then the stored override. A nil Store means the
// file is the only override.
type Source struct {
	File  string
	Store KV
}

// Stored returns the stored override, or an empty map when none is set.
func (s *Source) Stored(ctx context.Context) (map[string]any, error) {
	if s.Store == nil {
		return map[string]any{}, nil
	}
	raw, err := s.Store.GetConfig(ctx, StoredRulesKey, "{}")
	if err != nil {
		return nil, fmt.Errorf("load stored rules: %w", err)
	}
	stored := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode stored rules: %w", err)
	}
	return stored, nil
}

// Load returns the merged configuration together with its warnings.
func (s *Source) Load(ctx context.Context) (rules.Config, []string, error) {
	stored, err := s.Stored(ctx)
	if err != nil {
		return rules.Config{}, nil, err
	}
	cfg, err := LoadRules(s.File, stored)
	if err != nil {
		return rules.Config{}, nil, err
	}
	return cfg, ValidateRules(cfg), nil
}

// Engine builds a rules engine from the current configuration.
func (s *Source) Engine(ctx context.Context) (*rules.Engine, error) {
	cfg, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return rules.New(cfg), nil
}

// Save replaces the stored override after checking that it decodes. It
// returns the resulting configuration and its warnings.
func (s *Source) Save(ctx context.Context, override map[string]any) (rules.Config, []string, error) {
	if s.Store == nil {
		return rules.Config{}, nil, fmt.Errorf("save rules: no config store")
	}
	migrateLegacy(override)
	cfg, err := LoadRules(s.File, override)
	if err != nil {
		return rules.Config{}, nil, fmt.Errorf("save rules: %w", err)
	}
	data, err := json.Marshal(override)
	if err != nil {
		return rules.Config{}, nil, fmt.Errorf("save rules: %w", err)
	}
	if err := s.Store.SetConfig(ctx, StoredRulesKey, string(data)); err != nil {
		return rules.Config{}, nil, fmt.Errorf("save rules: %w", err)
	}
	return cfg, ValidateRules(cfg), nil
}
