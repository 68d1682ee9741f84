package crm

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrMissingCredential indicates the client was constructed without an auth token
	ErrMissingCredential = errors.New("crm auth token is required")
	// ErrInvalidArgument indicates a required argument was empty
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrURITooLong indicates the API rejected the request URI as too long
	ErrURITooLong = errors.New("request URI too long")
	// ErrMalformedResponse indicates the response did not have the expected shape
	ErrMalformedResponse = errors.New("malformed crm response")
)

// RemoteError is the error envelope reported by the CRM API itself
type RemoteError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	return fmt.Sprintf("crm API error %s: %s", e.Code, e.Message)
}

// TransportError wraps a failure to reach the API or decode its response.
// URL never carries the auth token.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	target := e.Op
	if e.URL != "" {
		target += " " + e.URL
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsRemoteError extracts the API error envelope from err, if there is one.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// IsRemoteError reports whether err carries an API error envelope.
func IsRemoteError(err error) bool {
	_, ok := AsRemoteError(err)
	return ok
}

func invalidArgument(name, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, name, reason)
}
