package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"
)

// DefaultLockTimeout bounds waiting for another process holding the lock.
const DefaultLockTimeout = 5 * time.Second

// FileStore implements Store with a single pretty-printed JSON file.
// Writes go through a temp file + rename under an advisory lock file, so
// concurrent readers never see a partial bundle and concurrent writers in
// other processes serialize.
type FileStore struct {
	path        string
	lockTimeout time.Duration
	mu          sync.Mutex
}

// NewFileStore creates a store backed by path. A non-positive lockTimeout
// uses DefaultLockTimeout. The file is not touched until the first call.
func NewFileStore(path string, lockTimeout time.Duration) *FileStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &FileStore{path: path, lockTimeout: lockTimeout}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the stored bundle.
func (s *FileStore) Load(ctx context.Context) (*Credentials, error) {
	creds, err := s.read()
	if err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Err: err}
	}
	return creds, nil
}

// Save atomically replaces the stored bundle.
func (s *FileStore) Save(ctx context.Context, creds *Credentials) error {
	if creds == nil {
		return &StorageError{Op: "save", Path: s.path, Err: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock := newFileLock(s.path)
	if err := lock.Lock(ctx, s.lockTimeout); err != nil {
		return err
	}
	defer lock.Unlock()

	if err := s.write(creds); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Update performs fn as a read-modify-write while holding both the
// in-process mutex and the file lock.
func (s *FileStore) Update(ctx context.Context, fn UpdateFunc) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := newFileLock(s.path)
	if err := lock.Lock(ctx, s.lockTimeout); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	current, err := s.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, &StorageError{Op: "update", Path: s.path, Err: err}
	}

	next, err := fn(current.clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		if current == nil {
			return nil, &StorageError{Op: "update", Path: s.path, Err: ErrNotFound}
		}
		return current, nil
	}

	if err := s.write(next); err != nil {
		return nil, &StorageError{Op: "update", Path: s.path, Err: err}
	}
	return next.clone(), nil
}

func (s *FileStore) read() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	creds := &Credentials{}
	if err := json.Unmarshal(data, creds); err != nil {
		return nil, ErrCorrupt
	}
	return creds, nil
}

func (s *FileStore) write(creds *Credentials) error {
	writer, err := newAtomicWriter(s.path, 0600)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(creds); err != nil {
		writer.Abort()
		return err
	}

	return writer.Commit()
}
