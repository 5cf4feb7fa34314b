package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/config"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/gitprovider/gitprovidertest"
	"github.com/joestump/branchsmith/internal/tokens"
)

// --- Helpers ---

func newTestServer(t *testing.T, createEnabled bool) (*Server, *gitprovidertest.Provider) {
	t.Helper()
	fake := gitprovidertest.New("main")
	fake.AddWorkItem(tokens.WorkItem{ID: 42, Title: "Fix login bug", Type: "Bug", State: "open"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := creator.New(gitprovider.NewStaticRegistry(fake), &config.Source{}, logger)
	return NewServer(svc, createEnabled, nil), fake
}

func makeRequest(tool string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content is %T, not TextContent", result.Content[0])
	}
	return tc.Text
}

func createArgs() map[string]any {
	return map[string]any{
		"repo_owner":    "acme",
		"repo_name":     "api",
		"provider":      "fake",
		"source_branch": "main",
		"work_item_id":  42,
	}
}

type stubRedactor struct{}

func (stubRedactor) Redact(s string) string { return strings.ReplaceAll(s, "secret", "[REDACTED]") }

// --- Tests ---

func TestTools_CreateGatedByConfig(t *testing.T) {
	names := func(s *Server) []string {
		var out []string
		for _, tool := range s.Tools() {
			out = append(out, tool.Tool.Name)
		}
		return out
	}

	off, _ := newTestServer(t, false)
	if got := names(off); strings.Join(got, ",") != "preview_branch_name,validate_branch_name" {
		t.Errorf("tools without creation = %v", got)
	}
	on, _ := newTestServer(t, true)
	if got := names(on); strings.Join(got, ",") != "preview_branch_name,validate_branch_name,create_branch" {
		t.Errorf("tools with creation = %v", got)
	}
}

func TestPreviewBranchName_FetchesWorkItem(t *testing.T) {
	s, _ := newTestServer(t, false)

	result, err := s.handlePreviewBranchName(context.Background(), makeRequest("preview_branch_name", createArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var p creator.Preview
	if err := json.Unmarshal([]byte(resultText(t, result)), &p); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if p.BranchName != "bugfix/42-fix-login-bug" {
		t.Errorf("branch_name = %q, want bugfix/42-fix-login-bug", p.BranchName)
	}
	if p.Rule.MatchedRuleName != "WI type: Bug" {
		t.Errorf("matched rule = %q, want WI type: Bug", p.Rule.MatchedRuleName)
	}
}

func TestPreviewBranchName_InlineWorkItem(t *testing.T) {
	s, fake := newTestServer(t, false)

	result, err := s.handlePreviewBranchName(context.Background(), makeRequest("preview_branch_name", map[string]any{
		"source_branch": "main",
		"work_item":     map[string]any{"id": 7, "title": "Add SSO"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, `"branch_name":"feature/7-add-sso"`) {
		t.Errorf("unexpected preview %s", text)
	}
	if fake.ListCalls != 0 {
		t.Error("preview must not touch the provider")
	}
}

func TestPreviewBranchName_MissingArguments(t *testing.T) {
	s, _ := newTestServer(t, false)

	result, err := s.handlePreviewBranchName(context.Background(), makeRequest("preview_branch_name", map[string]any{
		"source_branch": "main",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result")
	}
}

func TestValidateBranchName(t *testing.T) {
	tests := []struct {
		name      string
		branch    string
		wantValid bool
	}{
		{"valid", "feature/42-fix", true},
		{"double dot", "feature/a..b", false},
		{"lock suffix", "feature/x.lock", false},
	}
	s, _ := newTestServer(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleValidateBranchName(context.Background(), makeRequest("validate_branch_name", map[string]any{"name": tt.branch}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var v branchname.Validation
			if err := json.Unmarshal([]byte(resultText(t, result)), &v); err != nil {
				t.Fatalf("failed to unmarshal result: %v", err)
			}
			if v.Valid != tt.wantValid {
				t.Errorf("Validate(%q).Valid = %v, want %v", tt.branch, v.Valid, tt.wantValid)
			}
		})
	}
}

func TestCreateBranch_Disabled(t *testing.T) {
	s, fake := newTestServer(t, false)

	result, err := s.handleCreateBranch(context.Background(), makeRequest("create_branch", createArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error when creation is disabled")
	}
	if text := resultText(t, result); !strings.Contains(text, "disabled") {
		t.Errorf("expected disabled error message, got: %s", text)
	}
	if len(fake.Created) != 0 {
		t.Error("expected no branch to be created when disabled")
	}
}

func TestCreateBranch_Success(t *testing.T) {
	s, fake := newTestServer(t, true)

	result, err := s.handleCreateBranch(context.Background(), makeRequest("create_branch", createArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var res createBranchResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &res); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if res.Branch != "bugfix/42-fix-login-bug" || res.Rule != "WI type: Bug" || res.DryRun {
		t.Errorf("unexpected result %+v", res)
	}
	if len(fake.Created) != 1 || fake.Created[0] != res.Branch {
		t.Errorf("created = %v", fake.Created)
	}
}

func TestCreateBranch_MissingArguments(t *testing.T) {
	s, _ := newTestServer(t, true)
	args := createArgs()
	delete(args, "work_item_id")

	result, err := s.handleCreateBranch(context.Background(), makeRequest("create_branch", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "required") {
		t.Errorf("expected a required-arguments error, got %s", resultText(t, result))
	}
}

func TestCreateBranch_ConflictSuggestsName(t *testing.T) {
	s, fake := newTestServer(t, true)
	fake.CreateErr = fmt.Errorf("remote: %w", gitprovider.ErrBranchExists)

	result, err := s.handleCreateBranch(context.Background(), makeRequest("create_branch", createArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "suggested name: bugfix/42-fix-login-bug-2") {
		t.Errorf("expected suggestion, got: %s", text)
	}
}

func TestCreateBranch_RedactsErrors(t *testing.T) {
	s, fake := newTestServer(t, true)
	s.redactor = stubRedactor{}
	fake.CreateErr = fmt.Errorf("token secret rejected")

	result, err := s.handleCreateBranch(context.Background(), makeRequest("create_branch", createArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := resultText(t, result); strings.Contains(text, "secret") {
		t.Errorf("secret leaked: %s", text)
	}
}

func TestCreateBranch_DryRun(t *testing.T) {
	s, fake := newTestServer(t, true)
	s.creator.DryRun = true

	result, err := s.handleCreateBranch(context.Background(), makeRequest("create_branch", createArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res createBranchResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &res); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if !res.DryRun {
		t.Error("expected dry_run to be true")
	}
	if len(fake.Created) != 0 {
		t.Error("dry run created a branch")
	}
}
