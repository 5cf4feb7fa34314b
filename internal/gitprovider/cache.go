package gitprovider

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a branch listing is reused.
const DefaultCacheTTL = time.Minute

// CachedLister caches branch listings per provider and repository. Callers
// that create branches must Invalidate the repository afterwards.
type CachedLister struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	branches []string
	fetched  time.Time
}

// NewCachedLister creates a cache whose entries expire after ttl.
func NewCachedLister(ttl time.Duration) *CachedLister {
	return &CachedLister{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(p GitProvider, repo RepoRef) string {
	return p.Name() + ":" + repo.FullName()
}

// Branches returns the branch names of repo, listing them through p when
// the cached copy is missing or stale. The returned slice must not be modified.
func (c *CachedLister) Branches(ctx context.Context, p GitProvider, repo RepoRef) ([]string, error) {
	key := cacheKey(p, repo)

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		return e.branches, nil
	}

	branches, err := p.ListBranches(ctx, repo)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{branches: branches, fetched: c.now()}
	c.mu.Unlock()
	return branches, nil
}

// Invalidate drops the cached listing for repo.
func (c *CachedLister) Invalidate(p GitProvider, repo RepoRef) {
	c.mu.Lock()
	delete(c.entries, cacheKey(p, repo))
	c.mu.Unlock()
}
