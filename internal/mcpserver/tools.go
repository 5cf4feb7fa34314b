package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/tokens"
)

// --- Tool Definitions ---

// branchProperties are the arguments shared by preview_branch_name and
// create_branch.
const branchProperties = `
				"repo_owner": {
					"type": "string",
					"description": "Repository owner (org or user)"
				},
				"repo_name": {
					"type": "string",
					"description": "Repository name"
				},
				"clone_url": {
					"type": "string",
					"description": "Clone URL for provider resolution (optional)"
				},
				"provider": {
					"type": "string",
					"enum": ["github", "gitea"],
					"description": "Git provider; inferred from clone_url when omitted"
				},
				"source_branch": {
					"type": "string",
					"description": "Branch the new branch starts from"
				},
				"work_item_id": {
					"type": "integer",
					"description": "Issue number of the work item"
				}`

func previewBranchNameTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"preview_branch_name",
		"Compute the branch name the naming rules produce for a work item, without creating anything. Pass work_item to skip fetching it from the provider.",
		json.RawMessage(`{
			"type": "object",
			"properties": {`+branchProperties+`,
				"work_item": {
					"type": "object",
					"description": "Work item fields; replaces work_item_id",
					"properties": {
						"id": {"type": "integer"},
						"title": {"type": "string"},
						"type": {"type": "string"},
						"state": {"type": "string"},
						"assigned_to": {"type": "string"}
					},
					"required": ["id"]
				}
			},
			"required": ["source_branch"]
		}`),
	)
}

func validateBranchNameTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"validate_branch_name",
		"Check a branch name against the ref naming rules and the configured maximum length.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Branch name to validate"
				}
			},
			"required": ["name"]
		}`),
	)
}

func createBranchTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"create_branch",
		"Create the branch for a work item using the naming rules, and move the work item to the rule's state. Computed names are made unique; name overrides them when manual names are allowed.",
		json.RawMessage(`{
			"type": "object",
			"properties": {`+branchProperties+`,
				"name": {
					"type": "string",
					"description": "Manual branch name (optional)"
				}
			},
			"required": ["repo_owner", "repo_name", "source_branch", "work_item_id"]
		}`),
	)
}

// --- Tool Handlers ---

// branchArgs mirrors the JSON schema shared by preview_branch_name and
// create_branch.
type branchArgs struct {
	RepoOwner    string           `json:"repo_owner"`
	RepoName     string           `json:"repo_name"`
	CloneURL     string           `json:"clone_url"`
	Provider     string           `json:"provider"`
	SourceBranch string           `json:"source_branch"`
	WorkItemID   int              `json:"work_item_id"`
	WorkItem     *tokens.WorkItem `json:"work_item"`
	Name         string           `json:"name"`
}

func (a branchArgs) request() creator.Request {
	return creator.Request{
		Repo:         gitprovider.RepoRef{Owner: a.RepoOwner, Name: a.RepoName, CloneURL: a.CloneURL},
		Provider:     a.Provider,
		SourceBranch: a.SourceBranch,
		WorkItemID:   a.WorkItemID,
		WorkItem:     a.WorkItem,
		Name:         a.Name,
	}
}

func (s *Server) handlePreviewBranchName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args branchArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if args.WorkItem == nil && (args.RepoOwner == "" || args.RepoName == "" || args.WorkItemID == 0) {
		return mcp.NewToolResultError("work_item, or repo_owner, repo_name and work_item_id, are required"), nil
	}

	p, err := s.creator.Preview(ctx, args.request())
	if err != nil {
		return s.toolError("preview branch name", err), nil
	}
	return resultJSON(p)
}

type validateArgs struct {
	Name string `json:"name"`
}

func (s *Server) handleValidateBranchName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args validateArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	e, err := s.creator.Rules.Engine(ctx)
	if err != nil {
		return s.toolError("load rules", err), nil
	}
	return resultJSON(branchname.Validate(args.Name, e.Config().General.MaxLength))
}

// createBranchResult is the success response for create_branch.
type createBranchResult struct {
	Branch       string `json:"branch"`
	Provider     string `json:"provider"`
	Rule         string `json:"rule"`
	StateUpdated bool   `json:"state_updated"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

func (s *Server) handleCreateBranch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.createEnabled {
		return mcp.NewToolResultError("branch creation is disabled (set BRANCHSMITH_CREATE_ENABLED=true to enable)"), nil
	}

	var args branchArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if args.RepoOwner == "" || args.RepoName == "" || args.SourceBranch == "" || args.WorkItemID == 0 {
		return mcp.NewToolResultError("repo_owner, repo_name, source_branch, and work_item_id are required"), nil
	}

	r := args.request()
	r.WorkItem = nil
	res, err := s.creator.Create(ctx, r)
	if err != nil {
		return s.toolError("create branch", err), nil
	}

	if res.DryRun {
		log.Printf("[MCP] Dry run: would create %s for %s/%s", res.Branch, args.RepoOwner, args.RepoName)
	} else {
		log.Printf("[MCP] Created %s for %s/%s (rule %s)", res.Branch, args.RepoOwner, args.RepoName, res.Rule.MatchedRuleName)
	}
	return resultJSON(createBranchResult{
		Branch:       res.Branch,
		Provider:     res.Provider,
		Rule:         res.Rule.MatchedRuleName,
		StateUpdated: res.StateUpdated,
		DryRun:       res.DryRun,
	})
}

// toolError turns a failure into a tool error result. Conflicts carry the
// suggested name so the caller can retry with it.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", op, err)
	if s.redactor != nil {
		msg = s.redactor.Redact(msg)
	}
	var cerr *creator.ConflictError
	if errors.As(err, &cerr) && cerr.Suggestion != "" {
		msg += fmt.Sprintf("\nsuggested name: %s", cerr.Suggestion)
	}
	return mcp.NewToolResultError(msg)
}

// resultJSON marshals v to JSON and returns it as a tool result.
func resultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
