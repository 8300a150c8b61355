// Package credentials persists the OAuth token bundle used by ytupload.
package credentials

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates no credentials have been stored yet.
	ErrNotFound = errors.New("credentials: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("credentials: invalid input")
	// ErrCorrupt indicates the stored bundle could not be decoded.
	ErrCorrupt = errors.New("credentials: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring the credential file lock.
	ErrLockTimeout = errors.New("credentials: lock acquisition timeout")
)

// StorageError wraps storage errors with operation context.
// Use errors.As() to extract this error type:
//
//	var storErr *credentials.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.Path, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("load", "save", "update", "lock").
	Op string
	// Path is the backing file, if any.
	Path string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("credentials: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("credentials: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// UpdateFunc receives the current bundle (nil when none is stored) and
// returns the bundle to persist. Returning a nil bundle and nil error leaves
// storage untouched.
type UpdateFunc func(current *Credentials) (*Credentials, error)

// Store loads and saves a single credential bundle.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the last saved bundle or an error matching ErrNotFound.
	Load(ctx context.Context) (*Credentials, error)
	// Save replaces the stored bundle.
	Save(ctx context.Context, creds *Credentials) error
	// Update runs fn as an exclusive read-modify-write and returns the
	// bundle that is stored afterwards.
	Update(ctx context.Context, fn UpdateFunc) (*Credentials, error)
}
