package github

import "errors"

// Common GitHub API errors.
var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("unauthorized, check your GitHub token")
	// ErrForbidden is returned when authorization fails.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited is returned when the API quota is exhausted.
	ErrRateLimited = errors.New("API rate limit exceeded")
)

// IsQuotaError reports whether err means the API refused service and an
// HTML fallback may still work.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrRateLimited)
}
