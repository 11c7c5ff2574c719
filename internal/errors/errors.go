// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// Kind discriminates the error variants the API layer knows how to map.
type Kind int

const (
	KindUnclassified Kind = iota
	KindUserNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindUserNotFound:
		return "user_not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "unclassified"
	}
}

// UserNotFoundError is returned when GitHub reports that the requested user does not exist.
type UserNotFoundError struct {
	Username string
}

func (e *UserNotFoundError) Error() string {
	return "User not found"
}

// UpstreamError is returned for any failed GitHub call other than a missing user.
// StatusCode is zero when the request never produced an HTTP response.
type UpstreamError struct {
	StatusCode int
	// Body is the raw upstream response body, if there was one.
	Body string
	// Message describes network-level failures.
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.IsNetwork() {
		return e.Message
	}
	return fmt.Sprintf("GitHub API error: %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether the failure happened before any HTTP response was received.
func (e *UpstreamError) IsNetwork() bool {
	return e.StatusCode == 0
}

// IsRateLimited reports whether GitHub refused the call with 403, which it uses for rate limiting.
func (e *UpstreamError) IsRateLimited() bool {
	return e.StatusCode == 403
}

// NewNetworkError wraps a connectivity failure.
func NewNetworkError(err error) *UpstreamError {
	return &UpstreamError{
		Message: "Network error: " + err.Error(),
		Err:     err,
	}
}

// KindOf returns the variant of err, looking through wrapped errors.
func KindOf(err error) Kind {
	var notFound *UserNotFoundError
	if errors.As(err, &notFound) {
		return KindUserNotFound
	}
	if _, ok := AsUpstream(err); ok {
		return KindUpstream
	}
	return KindUnclassified
}

// AsUpstream finds the first UpstreamError in err's chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}
