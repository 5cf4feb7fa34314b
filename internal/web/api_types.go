package web

import (
	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/db"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/rules"
	"github.com/joestump/branchsmith/internal/tokens"
)

// --- API Request Types ---

// APIBranchRequest is the body of the preview and create endpoints. The
// repository is identified by owner and name; the provider is named
// explicitly or inferred from clone_url.
type APIBranchRequest struct {
	RepoOwner    string           `json:"repo_owner"`
	RepoName     string           `json:"repo_name"`
	CloneURL     string           `json:"clone_url,omitempty"`
	Provider     string           `json:"provider,omitempty"`
	SourceBranch string           `json:"source_branch"`
	WorkItemID   int              `json:"work_item_id,omitempty"`
	WorkItem     *tokens.WorkItem `json:"work_item,omitempty"`
	Name         string           `json:"name,omitempty"`
}

func (b APIBranchRequest) toRequest() creator.Request {
	return creator.Request{
		Repo:         gitprovider.RepoRef{Owner: b.RepoOwner, Name: b.RepoName, CloneURL: b.CloneURL},
		Provider:     b.Provider,
		SourceBranch: b.SourceBranch,
		WorkItemID:   b.WorkItemID,
		WorkItem:     b.WorkItem,
		Name:         b.Name,
	}
}

// APIValidateRequest is the body of POST /api/v1/branches/validate.
type APIValidateRequest struct {
	Name string `json:"name"`
}

// --- API Response Types ---

// APIHealthResponse is returned by GET /api/v1/health.
type APIHealthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Providers []string `json:"providers"`
	DryRun    bool     `json:"dry_run"`
}

// APITokensResponse lists the template vocabulary.
type APITokensResponse struct {
	Tokens []string `json:"tokens"`
}

// APIBranchesResponse wraps the creation history.
type APIBranchesResponse struct {
	Branches []db.BranchCreation `json:"branches"`
}

// APIConfigResponse carries the effective rules configuration. Stored is
// the raw override persisted through PUT; Config is the merged result.
type APIConfigResponse struct {
	Config   rules.Config   `json:"config"`
	Stored   map[string]any `json:"stored,omitempty"`
	Warnings []string       `json:"warnings"`
}

// APIErrorResponse is the error body. Suggestion is set on 409 when the
// requested branch already exists; Validation on 422.
type APIErrorResponse struct {
	Error      string                 `json:"error"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Validation *branchname.Validation `json:"validation,omitempty"`
}
