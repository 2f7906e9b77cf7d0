package github

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when a request is abandoned because its context
// was cancelled. It is never a user-visible failure.
var ErrCancelled = errors.New("request cancelled")

// RemoteError is a non-2xx response.
type RemoteError struct {
	URL    string
	Status int
	// Raw marks a raw-content request rather than a directory listing.
	Raw bool
}

func (e *RemoteError) Error() string {
	if e.Raw {
		return fmt.Sprintf("Raw file error (%d)", e.Status)
	}
	return fmt.Sprintf("GitHub API error (%d)", e.Status)
}

// FetchError is a network-level failure.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err stems from cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
