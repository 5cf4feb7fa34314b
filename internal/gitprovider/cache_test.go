package gitprovider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingProvider counts ListBranches calls.
type countingProvider struct {
	DisabledProvider
	calls    int
	branches []string
	err      error
}

func (c *countingProvider) Name() string { return "fake" }

func (c *countingProvider) ListBranches(context.Context, RepoRef) ([]string, error) {
	c.calls++
	return c.branches, c.err
}

func TestCachedLister(t *testing.T) {
	p := &countingProvider{branches: []string{"main"}}
	c := NewCachedLister(time.Minute)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	ctx := context.Background()

	for range 3 {
		if _, err := c.Branches(ctx, p, testRepo); err != nil {
			t.Fatalf("Branches: %v", err)
		}
	}
	if p.calls != 1 {
		t.Fatalf("expected one listing while fresh, got %d", p.calls)
	}

	c.Invalidate(p, testRepo)
	if _, err := c.Branches(ctx, p, testRepo); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Errorf("expected relisting after Invalidate, got %d calls", p.calls)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := c.Branches(ctx, p, testRepo); err != nil {
		t.Fatal(err)
	}
	if p.calls != 3 {
		t.Errorf("expected relisting after ttl, got %d calls", p.calls)
	}

	other := RepoRef{Owner: "joe", Name: "other"}
	if _, err := c.Branches(ctx, p, other); err != nil {
		t.Fatal(err)
	}
	if p.calls != 4 {
		t.Errorf("expected separate entry per repository, got %d calls", p.calls)
	}
}

func TestCachedLister_ErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	p := &countingProvider{err: boom}
	c := NewCachedLister(time.Minute)

	if _, err := c.Branches(context.Background(), p, testRepo); !errors.Is(err, boom) {
		t.Fatalf("expected error, got %v", err)
	}
	p.err = nil
	if _, err := c.Branches(context.Background(), p, testRepo); err != nil {
		t.Fatalf("expected recovery after error, got %v", err)
	}
	if p.calls != 2 {
		t.Errorf("expected failed listing to be retried, got %d calls", p.calls)
	}
}

func TestIssueType(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{nil, DefaultIssueType},
		{[]string{"priority", "BUG"}, "Bug"},
		{[]string{"epic", "bug"}, "Bug"},
		{[]string{" user story "}, "User Story"},
		{[]string{"feature"}, "Feature"},
	}
	for _, tt := range tests {
		if got := issueType(tt.labels); got != tt.want {
			t.Errorf("issueType(%q) = %q, want %q", tt.labels, got, tt.want)
		}
	}
}
