package gitprovider

import (
	"context"
	"fmt"

	"github.com/joestump/branchsmith/internal/tokens"
)

// DisabledProvider implements GitProvider but returns an error on every
// operation. It is used when a provider's required configuration (e.g.,
// tokens) is missing, so the system can start without failing while still
// providing clear error messages if the provider is invoked.
type DisabledProvider struct {
	name   string
	reason string
}

// NewDisabledProvider creates a provider that rejects all operations with a
// descriptive error including the provider name and reason.
func NewDisabledProvider(name, reason string) *DisabledProvider {
	return &DisabledProvider{name: name, reason: reason}
}

func (d *DisabledProvider) Name() string { return d.name }

func (d *DisabledProvider) err() error {
	return fmt.Errorf("git provider %q is disabled: %s", d.name, d.reason)
}

func (d *DisabledProvider) ListBranches(_ context.Context, _ RepoRef) ([]string, error) {
	return nil, d.err()
}

func (d *DisabledProvider) BranchExists(_ context.Context, _ RepoRef, _ string) (bool, error) {
	return false, d.err()
}

func (d *DisabledProvider) CreateBranch(_ context.Context, _ RepoRef, _, _ string) error {
	return d.err()
}

func (d *DisabledProvider) GetWorkItem(_ context.Context, _ RepoRef, _ int) (*tokens.WorkItem, error) {
	return nil, d.err()
}

func (d *DisabledProvider) UpdateWorkItemState(_ context.Context, _ RepoRef, _ int, _ string) error {
	return d.err()
}
