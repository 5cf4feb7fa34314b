package gitprovider

import (
	"context"

	"github.com/joestump/branchsmith/internal/tokens"
)

// GitProvider abstracts the git hosting operations branch creation needs.
// Each implementation targets a specific platform (GitHub, Gitea, etc.).
type GitProvider interface {
	// Name returns the provider identifier (e.g., "github", "gitea").
	Name() string

	// ListBranches returns the names of every branch in the repository.
	ListBranches(ctx context.Context, repo RepoRef) ([]string, error)

	// BranchExists reports whether branch exists in the repository.
	BranchExists(ctx context.Context, repo RepoRef, branch string) (bool, error)

	// CreateBranch creates a new branch from the given base branch. Failures
	// wrap ErrBranchExists, ErrRefConflict or ErrPermissionDenied when the
	// provider reports one of those conditions.
	CreateBranch(ctx context.Context, repo RepoRef, branch string, base string) error

	// GetWorkItem fetches the work item with the given number.
	GetWorkItem(ctx context.Context, repo RepoRef, id int) (*tokens.WorkItem, error)

	// UpdateWorkItemState moves the work item into state.
	UpdateWorkItemState(ctx context.Context, repo RepoRef, id int, state string) error
}

// RepoRef identifies a repository by owner, name, and clone URL.
type RepoRef struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	CloneURL string `json:"clone_url,omitempty"`
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string { return r.Owner + "/" + r.Name }
