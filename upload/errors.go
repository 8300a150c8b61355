package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSessionURI indicates the initiation response carried no Location header.
	ErrNoSessionURI = errors.New("upload: server returned no resumable session URI")
	// ErrRangeMismatch indicates the server acknowledged a different byte
	// range than the client sent.
	ErrRangeMismatch = errors.New("upload: server acknowledged an unexpected byte range")
)

// FileAccessError indicates the source file could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("upload: access %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// ChunkUploadError indicates a chunk submission failed and the upload was
// abandoned. Index is 1-based; it is 0 for the finalize request of an empty
// file.
type ChunkUploadError struct {
	Index  int
	Offset int64
	Err    error
}

func (e *ChunkUploadError) Error() string {
	return fmt.Sprintf("upload: chunk %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *ChunkUploadError) Unwrap() error { return e.Err }

// IncompleteUploadError indicates every byte was sent but the server never
// reported the upload as complete.
type IncompleteUploadError struct {
	BytesSent  int64
	TotalBytes int64
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload: server did not finalize upload after %d of %d bytes", e.BytesSent, e.TotalBytes)
}
