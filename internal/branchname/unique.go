package branchname

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MaxProbeAttempts bounds the numbered candidates tried before falling back
// to a timestamp suffix.
const MaxProbeAttempts = 100

// ExistsFunc reports whether a branch with the given name already exists.
type ExistsFunc func(ctx context.Context, name string) (bool, error)

var numberedRe = regexp.MustCompile(`^(.+)-(\d+)$`)

// now is swapped in tests.
var now = time.Now

// SplitSuffix splits "<base>-<n>" into base and n. ok is false when name
// has no numeric suffix.
func SplitSuffix(name string) (base string, n int, ok bool) {
	m := numberedRe.FindStringSubmatch(name)
	if m == nil {
		return name, 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return name, 0, false
	}
	return m[1], n, true
}

// ResolveUnique returns desired if it is free, otherwise the first free
// "<base>-<n>" candidate. Probes run one at a time. Errors from exists are
// returned unchanged apart from wrapping.
func ResolveUnique(ctx context.Context, desired string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, desired)
	if err != nil {
		return "", fmt.Errorf("check %q: %w", desired, err)
	}
	if !taken {
		return desired, nil
	}
	return SuggestAlternative(ctx, desired, exists)
}

// SuggestAlternative derives a free name for a name already known to be
// taken, without checking name itself. A trailing "-<n>" continues from
// n+1; otherwise numbering starts at 2. After MaxProbeAttempts taken
// candidates the base gets a millisecond timestamp suffix, unchecked.
func SuggestAlternative(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base, n, ok := SplitSuffix(name)
	counter := 2
	if ok {
		counter = n + 1
	}

	for range MaxProbeAttempts {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s-%d", base, counter)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		counter++
	}
	return fmt.Sprintf("%s-%d", base, now().UnixMilli()), nil
}
