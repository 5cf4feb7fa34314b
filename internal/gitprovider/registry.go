package gitprovider

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Registry maps provider names to GitProvider implementations.
type Registry struct {
	providers map[string]GitProvider
}

// NewRegistry creates a Registry and registers providers based on environment
// variables. Providers whose required config is missing are registered in a
// disabled state so the system always starts successfully.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]GitProvider)}

	// GitHub: requires GITHUB_TOKEN.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		r.Register("github", NewGitHubProvider(token))
	} else {
		r.Register("github", NewDisabledProvider("github", "GITHUB_TOKEN is not set"))
	}

	// Gitea: requires GITEA_URL and GITEA_TOKEN.
	giteaURL := os.Getenv("GITEA_URL")
	giteaToken := os.Getenv("GITEA_TOKEN")
	if giteaURL != "" && giteaToken != "" {
		r.Register("gitea", NewGiteaProvider(giteaURL, giteaToken))
	} else {
		var missing []string
		if giteaURL == "" {
			missing = append(missing, "GITEA_URL")
		}
		if giteaToken == "" {
			missing = append(missing, "GITEA_TOKEN")
		}
		r.Register("gitea", NewDisabledProvider("gitea", fmt.Sprintf("%s not set", strings.Join(missing, " and "))))
	}

	return r
}

// NewStaticRegistry creates a Registry holding exactly the given providers,
// keyed by their names.
func NewStaticRegistry(providers ...GitProvider) *Registry {
	r := &Registry{providers: make(map[string]GitProvider, len(providers))}
	for _, p := range providers {
		r.Register(p.Name(), p)
	}
	return r
}

// Register adds or replaces a provider in the registry.
func (r *Registry) Register(name string, provider GitProvider) {
	r.providers[name] = provider
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve selects the appropriate provider for a repo. An explicitly named
// provider wins; otherwise it is inferred from the clone URL.
func (r *Registry) Resolve(repo RepoRef, provider string) (GitProvider, error) {
	// 1. Explicit declaration.
	if provider != "" {
		return r.ResolveByName(provider)
	}

	// 2. Infer from clone URL.
	name := inferProvider(repo.CloneURL)
	if name == "" {
		return nil, fmt.Errorf("cannot resolve git provider for repo %s/%s (URL: %s): %w", repo.Owner, repo.Name, repo.CloneURL, ErrNoProvider)
	}
	return r.ResolveByName(name)
}

// ResolveByName returns the provider registered under the given name.
func (r *Registry) ResolveByName(name string) (GitProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("git provider %q is not registered: %w", name, ErrNoProvider)
	}
	return p, nil
}

// inferProvider maps a clone URL to a provider name based on known domain patterns.
func inferProvider(cloneURL string) string {
	lower := strings.ToLower(cloneURL)
	if strings.Contains(lower, "github.com") {
		return "github"
	}
	// Gitea instances are identified by common domain patterns.
	// The Gitea URL from env can also be checked, but for inference we
	// rely on known domains from the operator's setup.
	giteaURL := os.Getenv("GITEA_URL")
	if giteaURL != "" {
		// Extract hostname from GITEA_URL for matching.
		host := strings.TrimPrefix(giteaURL, "https://")
		host = strings.TrimPrefix(host, "http://")
		host = strings.Split(host, "/")[0]
		if host != "" && strings.Contains(lower, strings.ToLower(host)) {
			return "gitea"
		}
	}
	return ""
}
