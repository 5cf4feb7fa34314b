package config

import (
	"context"
	"strings"
	"testing"
)

// memKV is an in-memory KV.
type memKV map[string]string

func (m memKV) GetConfig(_ context.Context, key, fallback string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func (m memKV) SetConfig(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestSource_SaveAndLoad(t *testing.T) {
	kv := memKV{}
	src := &Source{Store: kv}
	ctx := context.Background()

	cfg, warnings, err := src.Save(ctx, map[string]any{
		"general": map[string]any{"replaceChar": "_", "maxLength": 10},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cfg.General.NonAlnumReplacement != "_" {
		t.Errorf("legacy replaceChar not migrated: %+v", cfg.General)
	}
	if len(warnings) != 2 || !strings.Contains(warnings[0], "maxLength 10") || !strings.Contains(warnings[1], "fails validation") {
		t.Errorf("warnings = %q", warnings)
	}
	if strings.Contains(kv[StoredRulesKey], "replaceChar") {
		t.Errorf("stored document still has the legacy key: %s", kv[StoredRulesKey])
	}

	loaded, _, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.General.MaxLength != 10 || loaded.General.NonAlnumReplacement != "_" {
		t.Errorf("Load did not return the stored override: %+v", loaded.General)
	}

	e, err := src.Engine(ctx)
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	if e.Config().General.MaxLength != 10 {
		t.Errorf("engine built from stale config")
	}
}

func TestSource_SaveRejectsUndecodable(t *testing.T) {
	kv := memKV{}
	src := &Source{Store: kv}

	_, _, err := src.Save(context.Background(), map[string]any{
		"general": map[string]any{"maxLength": "long"},
	})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := kv[StoredRulesKey]; ok {
		t.Error("invalid override must not be stored")
	}
}

func TestSource_NoStore(t *testing.T) {
	src := &Source{}
	cfg, _, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.Template == "" {
		t.Error("expected defaults without a store")
	}
	if _, _, err := src.Save(context.Background(), map[string]any{}); err == nil {
		t.Error("expected Save to fail without a store")
	}
}
