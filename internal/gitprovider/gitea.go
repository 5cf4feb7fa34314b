package gitprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joestump/branchsmith/internal/tokens"
)

// giteaPageSize is the page size requested when listing branches.
const giteaPageSize = 50

// GiteaProvider implements GitProvider for Gitea instances using the v1 REST API.
type GiteaProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGiteaProvider creates a GiteaProvider for the given Gitea instance.
func NewGiteaProvider(baseURL, token string) *GiteaProvider {
	return &GiteaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GiteaProvider) Name() string { return "gitea" }

func (g *GiteaProvider) repoURL(repo RepoRef, format string, args ...any) string {
	return fmt.Sprintf("%s/api/v1/repos/%s/%s", g.baseURL, repo.Owner, repo.Name) + fmt.Sprintf(format, args...)
}

func (g *GiteaProvider) ListBranches(ctx context.Context, repo RepoRef) ([]string, error) {
	var names []string
	for page := 1; ; page++ {
		var branches []struct {
			Name string `json:"name"`
		}
		url := g.repoURL(repo, "/branches?page=%d&limit=%d", page, giteaPageSize)
		if err := g.doJSON(ctx, http.MethodGet, url, nil, &branches); err != nil {
			return nil, fmt.Errorf("gitea: list branches: %w", err)
		}
		for _, b := range branches {
			names = append(names, b.Name)
		}
		if len(branches) < giteaPageSize {
			return names, nil
		}
	}
}

func (g *GiteaProvider) BranchExists(ctx context.Context, repo RepoRef, branch string) (bool, error) {
	err := g.doJSON(ctx, http.MethodGet, g.repoURL(repo, "/branches/%s", branch), nil, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("gitea: branch exists: %w", err)
}

func (g *GiteaProvider) CreateBranch(ctx context.Context, repo RepoRef, branch string, base string) error {
	body := map[string]string{
		"new_branch_name": branch,
		"old_branch_name": base,
	}
	if err := g.doJSON(ctx, http.MethodPost, g.repoURL(repo, "/branches"), body, nil); err != nil {
		return fmt.Errorf("gitea: create branch: %w", err)
	}
	return nil
}

type giteaIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Assignee *struct {
		Login string `json:"login"`
	} `json:"assignee"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
	Updated time.Time `json:"updated_at"`
}

func (g *GiteaProvider) GetWorkItem(ctx context.Context, repo RepoRef, id int) (*tokens.WorkItem, error) {
	var resp giteaIssue
	if err := g.doJSON(ctx, http.MethodGet, g.repoURL(repo, "/issues/%d", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("gitea: get work item %d: %w", id, err)
	}

	i := issue{
		Number:    resp.Number,
		Title:     resp.Title,
		State:     resp.State,
		UpdatedAt: resp.Updated,
	}
	for _, l := range resp.Labels {
		i.Labels = append(i.Labels, l.Name)
	}
	for _, a := range resp.Assignees {
		i.Assignees = append(i.Assignees, a.Login)
	}
	if len(i.Assignees) == 0 && resp.Assignee != nil {
		i.Assignees = []string{resp.Assignee.Login}
	}
	return i.workItem(), nil
}

// UpdateWorkItemState sets the issue state for "open" and "closed" and adds
// any other state as a label.
func (g *GiteaProvider) UpdateWorkItemState(ctx context.Context, repo RepoRef, id int, state string) error {
	if isIssueState(state) {
		body := map[string]string{"state": strings.ToLower(state)}
		if err := g.doJSON(ctx, http.MethodPatch, g.repoURL(repo, "/issues/%d", id), body, nil); err != nil {
			return fmt.Errorf("gitea: update work item %d: %w", id, err)
		}
		return nil
	}
	body := map[string][]string{"labels": {state}}
	if err := g.doJSON(ctx, http.MethodPost, g.repoURL(repo, "/issues/%d/labels", id), body, nil); err != nil {
		return fmt.Errorf("gitea: update work item %d: add label: %w", id, err)
	}
	return nil
}

// doJSON executes an HTTP request with JSON body/response handling.
// Non-2xx responses are classified from the status and Gitea's message.
func (g *GiteaProvider) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return classify(resp.StatusCode, msg)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
