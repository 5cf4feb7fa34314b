// Package gitprovidertest provides an in-memory git provider for tests.
package gitprovidertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/tokens"
)

// Provider is an in-memory GitProvider. Branches and work items are shared
// across repositories. The zero value is not usable; call New.
type Provider struct {
	mu sync.Mutex

	branches  map[string]bool
	workItems map[int]tokens.WorkItem

	// CreateErr, when set, is returned by CreateBranch instead of creating.
	CreateErr error
	// StateErr, when set, is returned by UpdateWorkItemState.
	StateErr error

	Created     []string
	StateWrites map[int]string
	ListCalls   int
}

// New creates a provider holding the given branches.
func New(branches ...string) *Provider {
	p := &Provider{
		branches:    make(map[string]bool),
		workItems:   make(map[int]tokens.WorkItem),
		StateWrites: make(map[int]string),
	}
	for _, b := range branches {
		p.branches[b] = true
	}
	return p
}

// AddWorkItem registers wi under wi.ID.
func (p *Provider) AddWorkItem(wi tokens.WorkItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workItems[wi.ID] = wi
}

// AddBranch registers a branch without recording a creation.
func (p *Provider) AddBranch(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.branches[name] = true
}

func (p *Provider) Name() string { return "fake" }

func (p *Provider) ListBranches(context.Context, gitprovider.RepoRef) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListCalls++
	out := make([]string, 0, len(p.branches))
	for b := range p.branches {
		out = append(out, b)
	}
	return out, nil
}

func (p *Provider) BranchExists(_ context.Context, _ gitprovider.RepoRef, branch string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.branches[branch], nil
}

func (p *Provider) CreateBranch(_ context.Context, _ gitprovider.RepoRef, branch, base string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateErr != nil {
		return p.CreateErr
	}
	if p.branches[branch] {
		return fmt.Errorf("fake: %w", gitprovider.ErrBranchExists)
	}
	p.branches[branch] = true
	p.Created = append(p.Created, branch)
	return nil
}

func (p *Provider) GetWorkItem(_ context.Context, _ gitprovider.RepoRef, id int) (*tokens.WorkItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	wi, ok := p.workItems[id]
	if !ok {
		return nil, fmt.Errorf("fake: work item %d: %w", id, gitprovider.ErrNotFound)
	}
	return &wi, nil
}

func (p *Provider) UpdateWorkItemState(_ context.Context, _ gitprovider.RepoRef, id int, state string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StateErr != nil {
		return p.StateErr
	}
	p.StateWrites[id] = state
	return nil
}
