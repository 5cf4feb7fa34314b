package gitprovider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Classified provider failures. Provider errors wrap one of these when the
// remote reports the matching condition; test with errors.Is.
var (
	ErrBranchExists     = errors.New("branch already exists")
	ErrRefConflict      = errors.New("path conflicts with existing ref")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")

	// ErrNoProvider is returned when no registered provider serves a repo.
	ErrNoProvider = errors.New("no git provider")
)

// classify maps an HTTP status and provider message onto a sentinel error.
// Unrecognized failures keep the status and message without a sentinel.
func classify(status int, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "already exists"):
		return fmt.Errorf("%w: %s", ErrBranchExists, message)
	case strings.Contains(lower, "conflict"), strings.Contains(lower, "is a directory"),
		strings.Contains(lower, "cannot lock ref"), status == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrRefConflict, message)
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		strings.Contains(lower, "permission"):
		return fmt.Errorf("%w (%d): %s", ErrPermissionDenied, status, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w (404): %s", ErrNotFound, message)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, message)
	}
}
