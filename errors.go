package ytupload

import (
	"ytupload/auth"
	"ytupload/config"
	"ytupload/credentials"
	"ytupload/internal/retry"
	"ytupload/upload"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytupload.ErrTokenExpired) {
//		fmt.Println("run the authorization flow again")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var chunkErr *ytupload.ChunkUploadError
//	if errors.As(err, &chunkErr) {
//		fmt.Printf("chunk %d failed at offset %d: %v\n", chunkErr.Index, chunkErr.Offset, chunkErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// MissingConfigError lists required configuration keys that were not set.
	MissingConfigError = config.MissingError
	// StorageError wraps errors during credential storage operations.
	StorageError = credentials.StorageError
	// AuthError wraps a failed authorization step.
	AuthError = auth.Error
	// RefreshError indicates the access token could not be renewed.
	RefreshError = auth.RefreshError
	// FileAccessError indicates the source file could not be read.
	FileAccessError = upload.FileAccessError
	// ChunkUploadError indicates a chunk submission failed.
	ChunkUploadError = upload.ChunkUploadError
	// IncompleteUploadError indicates the server never finalized the upload.
	IncompleteUploadError = upload.IncompleteUploadError
	// RetryableError wraps the last initiation error after retries ran out.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrMissingConfig is matched by *MissingConfigError.
	ErrMissingConfig = config.ErrMissing

	// ErrNotFound indicates no credentials are stored yet.
	ErrNotFound = credentials.ErrNotFound
	// ErrStorageCorrupt indicates the credential file could not be decoded.
	ErrStorageCorrupt = credentials.ErrCorrupt
	// ErrLockTimeout indicates a timeout acquiring the credential file lock.
	ErrLockTimeout = credentials.ErrLockTimeout

	// ErrTokenExpired indicates an expired token with no refresh token.
	ErrTokenExpired = auth.ErrTokenExpired
	// ErrInvalidGrant indicates the provider rejected a code or refresh token.
	ErrInvalidGrant = auth.ErrInvalidGrant

	// ErrNoSessionURI indicates the server did not open an upload session.
	ErrNoSessionURI = upload.ErrNoSessionURI
	// ErrRangeMismatch indicates the server stored a different byte range than sent.
	ErrRangeMismatch = upload.ErrRangeMismatch
)

// IsReauthRequired reports whether err can only be fixed by running the
// authorization flow again.
func IsReauthRequired(err error) bool {
	return auth.IsReauthRequired(err)
}
