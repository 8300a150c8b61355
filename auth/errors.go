package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

var (
	// ErrTokenExpired indicates the access token has expired and no refresh
	// token is stored to renew it. The user must authorize again.
	ErrTokenExpired = errors.New("auth: access token expired and no refresh token available")

	// ErrInvalidGrant indicates the provider rejected an authorization code
	// or refresh token (already used, expired or revoked).
	ErrInvalidGrant = errors.New("auth: invalid grant")
)

// Error wraps a failed authorization step.
type Error struct {
	// Op is the step that failed ("exchange", "save").
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RefreshError indicates the token endpoint could not renew the access token.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("auth: refresh access token: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// classify tags provider invalid_grant responses with ErrInvalidGrant while
// keeping the underlying *oauth2.RetrieveError reachable.
func classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return fmt.Errorf("%w: %w", ErrInvalidGrant, err)
	}
	return err
}
