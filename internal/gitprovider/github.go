package gitprovider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/joestump/branchsmith/internal/tokens"
)

// DefaultGitHubBaseURL is the public GitHub API endpoint.
const DefaultGitHubBaseURL = "https://api.github.com/"

// GitHubProvider implements GitProvider using the GitHub REST API. Issues
// are the work items.
type GitHubProvider struct {
	token   string
	baseURL string // defaults to DefaultGitHubBaseURL

	once   sync.Once
	client *github.Client
}

// NewGitHubProvider creates a GitHubProvider with the given personal access token.
func NewGitHubProvider(token string) *GitHubProvider {
	return &GitHubProvider{token: token, baseURL: DefaultGitHubBaseURL}
}

func (g *GitHubProvider) Name() string { return "github" }

// api returns the go-github client, building it on first use.
func (g *GitHubProvider) api() *github.Client {
	g.once.Do(func() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.token})
		tc := oauth2.NewClient(context.Background(), ts)
		tc.Timeout = 30 * time.Second
		g.client = github.NewClient(tc)

		if g.baseURL != DefaultGitHubBaseURL {
			base := g.baseURL
			if !strings.HasSuffix(base, "/") {
				base += "/"
			}
			if u, err := url.Parse(base); err == nil {
				g.client.BaseURL = u
			}
		}
	})
	return g.client
}

func (g *GitHubProvider) ListBranches(ctx context.Context, repo RepoRef) ([]string, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var names []string
	for {
		branches, resp, err := g.api().Repositories.ListBranches(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("github: list branches: %w", githubError(err))
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

func (g *GitHubProvider) BranchExists(ctx context.Context, repo RepoRef, branch string) (bool, error) {
	_, _, err := g.api().Git.GetRef(ctx, repo.Owner, repo.Name, "refs/heads/"+branch)
	if err == nil {
		return true, nil
	}
	err = githubError(err)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("github: branch exists: %w", err)
}

func (g *GitHubProvider) CreateBranch(ctx context.Context, repo RepoRef, branch string, base string) error {
	baseRef, _, err := g.api().Git.GetRef(ctx, repo.Owner, repo.Name, "refs/heads/"+base)
	if err != nil {
		return fmt.Errorf("github: create branch: get base ref: %w", githubError(err))
	}

	ref := &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: baseRef.GetObject().SHA},
	}
	if _, _, err := g.api().Git.CreateRef(ctx, repo.Owner, repo.Name, ref); err != nil {
		return fmt.Errorf("github: create branch: %w", githubError(err))
	}
	return nil
}

func (g *GitHubProvider) GetWorkItem(ctx context.Context, repo RepoRef, id int) (*tokens.WorkItem, error) {
	is, _, err := g.api().Issues.Get(ctx, repo.Owner, repo.Name, id)
	if err != nil {
		return nil, fmt.Errorf("github: get work item %d: %w", id, githubError(err))
	}

	i := issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		State:     is.GetState(),
		UpdatedAt: is.GetUpdatedAt().Time,
	}
	for _, l := range is.Labels {
		i.Labels = append(i.Labels, l.GetName())
	}
	for _, a := range is.Assignees {
		i.Assignees = append(i.Assignees, a.GetLogin())
	}
	if len(i.Assignees) == 0 && is.Assignee != nil {
		i.Assignees = []string{is.Assignee.GetLogin()}
	}
	return i.workItem(), nil
}

// UpdateWorkItemState sets the issue state for "open" and "closed" and adds
// any other state as a label.
func (g *GitHubProvider) UpdateWorkItemState(ctx context.Context, repo RepoRef, id int, state string) error {
	if isIssueState(state) {
		req := &github.IssueRequest{State: github.Ptr(strings.ToLower(state))}
		if _, _, err := g.api().Issues.Edit(ctx, repo.Owner, repo.Name, id, req); err != nil {
			return fmt.Errorf("github: update work item %d: %w", id, githubError(err))
		}
		return nil
	}
	if _, _, err := g.api().Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Name, id, []string{state}); err != nil {
		return fmt.Errorf("github: update work item %d: add label: %w", id, githubError(err))
	}
	return nil
}

// githubError classifies go-github API errors. Transport errors pass through.
func githubError(err error) error {
	var apiErr *github.ErrorResponse
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return err
	}
	msg := apiErr.Message
	for _, e := range apiErr.Errors {
		if e.Message != "" {
			msg += ": " + e.Message
		}
	}
	return classify(apiErr.Response.StatusCode, msg)
}
