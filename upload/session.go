package upload

import "github.com/google/uuid"

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Session tracks one resumable upload. BytesSent never exceeds TotalBytes
// and ChunkSize does not change once the session exists.
type Session struct {
	// ID is a local identifier used in logs and progress reports.
	ID string
	// URI is the server-assigned resumable session handle.
	URI        string
	TotalBytes int64
	BytesSent  int64
	ChunkSize  int64
	Status     Status
}

func newSession(total, chunkSize int64) *Session {
	return &Session{
		ID:         uuid.NewString(),
		TotalBytes: total,
		ChunkSize:  chunkSize,
		Status:     StatusPending,
	}
}

// Chunks returns how many chunk submissions the session needs.
func (s *Session) Chunks() int {
	return ChunkCount(s.TotalBytes, s.ChunkSize)
}

// ChunkCount returns ceil(size / chunkSize), or 0 for an empty file.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// Progress is reported after every acknowledged chunk.
type Progress struct {
	SessionID  string
	Status     Status
	Chunk      int // 1-based index of the chunk just sent
	Chunks     int
	BytesSent  int64
	TotalBytes int64
}

// ProgressFunc receives progress updates on the uploading goroutine.
type ProgressFunc func(Progress)
