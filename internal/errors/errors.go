// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrMissingCredential is returned when a user has no stored upstream access token.
var ErrMissingCredential = errors.New("user has no stored GitHub access token")

// RateLimit is a snapshot of the upstream quota taken from response headers.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	Used      int       `json:"used"`
}

// UpstreamError is a well-formed error response from the GitHub API.
type UpstreamError struct {
	StatusCode int
	Message    string
	Rate       *RateLimit
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("github: %d %s", e.StatusCode, e.Message)
}

// RateLimitExceededError is returned when the upstream quota is exhausted and
// the reset is too far away (or already passed) to wait for.
type RateLimitExceededError struct {
	Reset time.Time
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("github rate limit exceeded, resets at %s", e.Reset.UTC().Format(time.RFC3339))
}

// UserNotFoundError is returned when a sync is requested for an unknown user.
type UserNotFoundError struct {
	UserID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %d not found", e.UserID)
}

// TooSoonError is returned by the manual trigger guard when the previous sync
// finished less than the minimum interval ago.
type TooSoonError struct {
	Wait       time.Duration
	LastSyncAt time.Time
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("sync requested too soon, retry in %ds", e.WaitSeconds())
}

// WaitSeconds rounds the remaining wait up to whole seconds.
func (e *TooSoonError) WaitSeconds() int {
	secs := int(e.Wait / time.Second)
	if e.Wait%time.Second != 0 {
		secs++
	}
	return secs
}

// ValidationError reports an invalid user-supplied field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsAuthError reports whether err means the credential was rejected. Retrying
// such an error never helps.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode == http.StatusUnauthorized
	}
	msg := err.Error()
	return strings.Contains(msg, "401") || strings.Contains(msg, "Unauthorized")
}
