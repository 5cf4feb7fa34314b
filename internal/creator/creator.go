// Package creator previews and creates work item branches on a git
// provider: it resolves the naming rule, makes the name unique, creates the
// ref, applies the rule's work item state and records the result.
package creator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/db"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/hub"
	"github.com/joestump/branchsmith/internal/rules"
	"github.com/joestump/branchsmith/internal/tokens"
)

// ErrManualNameDisabled is returned when a request names the branch
// explicitly but general.allowManualNameOverride is off.
var ErrManualNameDisabled = errors.New("manual branch names are disabled by configuration")

// ValidationError reports a branch name that fails validation.
type ValidationError struct {
	Name       string
	Validation branchname.Validation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid branch name %q: %v", e.Name, e.Validation.Errors)
}

// ConflictError reports a creation rejected by the provider. Suggestion is
// set, and verified free, when the branch already exists.
type ConflictError struct {
	Name       string
	Suggestion string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("create %q: %v (try %q)", e.Name, e.Err, e.Suggestion)
	}
	return fmt.Sprintf("create %q: %v", e.Name, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Rules yields the engine for the current configuration.
type Rules interface {
	Engine(ctx context.Context) (*rules.Engine, error)
}

// History records created branches. *db.DB satisfies it.
type History interface {
	InsertBranchCreation(ctx context.Context, b *db.BranchCreation) (int64, error)
}

// Request identifies the branch to preview or create.
type Request struct {
	Repo         gitprovider.RepoRef `json:"repo"`
	Provider     string              `json:"provider,omitempty"`
	SourceBranch string              `json:"source_branch"`
	WorkItemID   int                 `json:"work_item_id,omitempty"`
	// WorkItem skips fetching when set. Only Preview accepts it.
	WorkItem *tokens.WorkItem `json:"work_item,omitempty"`
	// Name replaces the computed name when manual names are allowed.
	Name string `json:"name,omitempty"`
}

// Preview is the computed name for a request, before anything is created.
type Preview struct {
	BranchName string                `json:"branch_name"`
	Rule       rules.ResolvedRule    `json:"rule"`
	Validation branchname.Validation `json:"validation"`
	WorkItem   tokens.WorkItem       `json:"work_item"`
}

// Result describes a created (or, in dry-run mode, planned) branch.
type Result struct {
	Branch       string             `json:"branch"`
	Provider     string             `json:"provider"`
	Rule         rules.ResolvedRule `json:"rule"`
	StateUpdated bool               `json:"state_updated"`
	DryRun       bool               `json:"dry_run,omitempty"`
}

// Service runs previews and creations. History and Hub are optional.
type Service struct {
	Registry *gitprovider.Registry
	Rules    Rules
	Cache    *gitprovider.CachedLister
	History  History
	Hub      *hub.Hub
	Logger   *slog.Logger
	// DryRun computes and reserves names without touching the provider.
	DryRun bool
}

// New creates a Service with a fresh branch cache.
func New(registry *gitprovider.Registry, rs Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Registry: registry,
		Rules:    rs,
		Cache:    gitprovider.NewCachedLister(gitprovider.DefaultCacheTTL),
		Logger:   logger,
	}
}

func (s *Service) provider(req Request) (gitprovider.GitProvider, error) {
	p, err := s.Registry.Resolve(req.Repo, req.Provider)
	if err != nil {
		return nil, fmt.Errorf("creator: %w", err)
	}
	return p, nil
}

func (s *Service) engine(ctx context.Context, repo gitprovider.RepoRef) (*rules.Engine, error) {
	e, err := s.Rules.Engine(ctx)
	if err != nil {
		return nil, fmt.Errorf("creator: load rules: %w", err)
	}
	return e.ForRepository(repo.FullName()), nil
}

// Preview computes the branch name for req. The work item is fetched from
// the provider unless req.WorkItem is set.
func (s *Service) Preview(ctx context.Context, req Request) (*Preview, error) {
	e, err := s.engine(ctx, req.Repo)
	if err != nil {
		return nil, err
	}

	wi := req.WorkItem
	if wi == nil {
		p, err := s.provider(req)
		if err != nil {
			return nil, err
		}
		if wi, err = p.GetWorkItem(ctx, req.Repo, req.WorkItemID); err != nil {
			return nil, fmt.Errorf("creator: preview: %w", err)
		}
	}

	c := e.ComputeWithRule(*wi, req.SourceBranch)
	return &Preview{
		BranchName: c.BranchName,
		Rule:       c.Rule,
		Validation: branchname.Validate(c.BranchName, e.Config().General.MaxLength),
		WorkItem:   *wi,
	}, nil
}

// Create computes, validates and creates the branch for req. Computed names
// are made unique against the repository's branches first; manual names
// are used as given. A failed work item state update is logged and reported
// through Result.StateUpdated; it never undoes the branch.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	p, err := s.provider(req)
	if err != nil {
		return nil, err
	}
	e, err := s.engine(ctx, req.Repo)
	if err != nil {
		return nil, err
	}
	general := e.Config().General

	wi, err := p.GetWorkItem(ctx, req.Repo, req.WorkItemID)
	if err != nil {
		return nil, fmt.Errorf("creator: create: %w", err)
	}
	c := e.ComputeWithRule(*wi, req.SourceBranch)

	name := c.BranchName
	if req.Name != "" {
		if !general.AllowManualNameOverride {
			return nil, ErrManualNameDisabled
		}
		name = req.Name
	} else {
		name, err = branchname.ResolveUnique(ctx, name, s.listedExists(p, req.Repo))
		if err != nil {
			return nil, fmt.Errorf("creator: create: %w", err)
		}
	}

	if v := branchname.Validate(name, general.MaxLength); !v.Valid {
		return nil, &ValidationError{Name: name, Validation: v}
	}

	log := s.Logger.With("provider", p.Name(), "repo", req.Repo.FullName(), "branch", name, "rule", c.Rule.MatchedRuleName)
	res := &Result{Branch: name, Provider: p.Name(), Rule: c.Rule, DryRun: s.DryRun}
	if s.DryRun {
		log.Info("dry run: branch not created")
		return res, nil
	}

	if err := p.CreateBranch(ctx, req.Repo, name, req.SourceBranch); err != nil {
		s.Cache.Invalidate(p, req.Repo)
		return nil, s.conflict(ctx, p, req.Repo, name, err)
	}
	s.Cache.Invalidate(p, req.Repo)
	log.Info("branch created")

	if st := c.Rule.WorkItemState; st != nil && st.Enabled && st.State != "" {
		if err := p.UpdateWorkItemState(ctx, req.Repo, wi.ID, st.State); err != nil {
			log.Warn("work item state update failed", "work_item", wi.ID, "state", st.State, "error", err)
		} else {
			res.StateUpdated = true
		}
	}

	s.record(ctx, log, req, res, wi.ID)
	return res, nil
}

// listedExists checks names against the cached branch listing.
func (s *Service) listedExists(p gitprovider.GitProvider, repo gitprovider.RepoRef) branchname.ExistsFunc {
	var set map[string]bool
	return func(ctx context.Context, name string) (bool, error) {
		if set == nil {
			branches, err := s.Cache.Branches(ctx, p, repo)
			if err != nil {
				return false, err
			}
			set = make(map[string]bool, len(branches))
			for _, b := range branches {
				set[b] = true
			}
		}
		return set[name], nil
	}
}

// conflict wraps a creation failure. When the branch already exists, it
// attaches an alternative checked live against the provider.
func (s *Service) conflict(ctx context.Context, p gitprovider.GitProvider, repo gitprovider.RepoRef, name string, err error) error {
	switch {
	case errors.Is(err, gitprovider.ErrBranchExists):
		ce := &ConflictError{Name: name, Err: err}
		exists := func(ctx context.Context, n string) (bool, error) { return p.BranchExists(ctx, repo, n) }
		if alt, sErr := branchname.SuggestAlternative(ctx, name, exists); sErr == nil {
			ce.Suggestion = alt
		} else {
			s.Logger.Warn("no alternative branch name", "branch", name, "error", sErr)
		}
		return ce
	case errors.Is(err, gitprovider.ErrRefConflict), errors.Is(err, gitprovider.ErrPermissionDenied):
		return &ConflictError{Name: name, Err: err}
	default:
		return fmt.Errorf("creator: create: %w", err)
	}
}

func (s *Service) record(ctx context.Context, log *slog.Logger, req Request, res *Result, workItemID int) {
	rec := &db.BranchCreation{
		RepoOwner:    req.Repo.Owner,
		RepoName:     req.Repo.Name,
		Provider:     res.Provider,
		Branch:       res.Branch,
		SourceBranch: req.SourceBranch,
		WorkItemID:   workItemID,
		RuleName:     res.Rule.MatchedRuleName,
		StateUpdated: res.StateUpdated,
		CreatedAt:    time.Now().UTC(),
	}
	if s.History != nil {
		if _, err := s.History.InsertBranchCreation(ctx, rec); err != nil {
			log.Warn("record branch creation failed", "error", err)
		}
	}
	if s.Hub != nil {
		data, err := json.Marshal(rec)
		if err != nil {
			log.Warn("encode branch event failed", "error", err)
			return
		}
		s.Hub.Publish(hub.TopicBranches, string(data))
	}
}
