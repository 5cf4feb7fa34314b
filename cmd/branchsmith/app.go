package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/config"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/db"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/hub"
)

// app is the wiring shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *db.DB
	rules  *config.Source
	svc    *creator.Service
}

func newApp(cfg config.Config) (*app, error) {
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	path := cfg.StatePath
	if path == "" {
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		path = filepath.Join(cfg.StateDir, "branchsmith.db")
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	src := &config.Source{File: cfg.RulesFile, Store: database}
	_, warnings, err := src.Load(context.Background())
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("rules config", "warning", w)
	}

	svc := creator.New(gitprovider.NewRegistry(), src, logger)
	svc.History = database
	svc.Hub = hub.New()
	svc.DryRun = cfg.DryRun

	logger.Debug("branchsmith ready",
		"version", config.Version,
		"state", path,
		"rules_file", cfg.RulesFile,
		"providers", svc.Registry.Names(),
		"dry_run", cfg.DryRun,
	)
	return &app{cfg: cfg, logger: logger, db: database, rules: src, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", "error", err)
	}
}

// newLogger builds the process logger. format is "text" or "json".
func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
}

// parseRepo splits "owner/name".
func parseRepo(s string) (gitprovider.RepoRef, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return gitprovider.RepoRef{}, fmt.Errorf("repository %q must be owner/name", s)
	}
	return gitprovider.RepoRef{Owner: owner, Name: name}, nil
}

func printValidation(w io.Writer, v branchname.Validation) {
	if v.Valid {
		fmt.Fprintln(w, "  valid")
	} else {
		fmt.Fprintln(w, "  invalid")
	}
	for _, e := range v.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, warn := range v.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
