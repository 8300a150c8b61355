package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "secrets", "youtube.json"), time.Second)
}

func TestFileStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}

	var storErr *StorageError
	if !errors.As(err, &storErr) {
		t.Fatalf("Load() error type = %T, want *StorageError", err)
	}
	if storErr.Op != "load" {
		t.Errorf("StorageError.Op = %q, want %q", storErr.Op, "load")
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	in := &Credentials{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
		ExpiresIn:    3600,
		Created:      time.Now().Unix(),
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.AccessToken != in.AccessToken || out.RefreshToken != in.RefreshToken {
		t.Errorf("Load() = %+v, want %+v", out, in)
	}
	if !out.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", out.Expiry, expiry)
	}
}

func TestFileStore_PrettyPrintedAndPrivate(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(context.Background(), &Credentials{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "\n    \"access_token\": \"a\"") {
		t.Errorf("file is not pretty-printed:\n%s", data)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestFileStore_OmitsUnsetExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, &Credentials{AccessToken: "a", ExpiresIn: 3600, Created: 1700000000}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(data), "expiry") {
		t.Errorf("zero expiry was written:\n%s", data)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := time.Unix(1700000000+3600, 0); !out.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", out.ExpiresAt(), want)
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Save(ctx, &Credentials{AccessToken: "a"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt", err)
	}
}

func TestFileStore_LegacyBundle(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	created := time.Now().Add(-2 * time.Hour).Unix()
	legacy := map[string]any{
		"access_token":  "old",
		"refresh_token": "r",
		"token_type":    "Bearer",
		"expires_in":    3599,
		"created":       created,
	}
	data, _ := json.MarshalIndent(legacy, "", "    ")
	if err := os.WriteFile(store.Path(), data, 0600); err != nil {
		t.Fatal(err)
	}

	creds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := time.Unix(created+3599, 0)
	if !creds.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", creds.ExpiresAt(), want)
	}
	if !creds.Expired(time.Now(), 0) {
		t.Error("Expired() = false for a two hour old one hour token")
	}
}

func TestFileStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.Update(ctx, func(cur *Credentials) (*Credentials, error) {
		if cur != nil {
			t.Errorf("Update() current = %+v, want nil on empty store", cur)
		}
		return &Credentials{AccessToken: "first", RefreshToken: "r"}, nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.AccessToken != "first" {
		t.Errorf("Update() = %q, want %q", got.AccessToken, "first")
	}

	got, err = store.Update(ctx, func(cur *Credentials) (*Credentials, error) {
		cur.AccessToken = "second"
		return cur, nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.AccessToken != "second" || got.RefreshToken != "r" {
		t.Errorf("Update() = %+v", got)
	}

	sentinel := errors.New("boom")
	_, err = store.Update(ctx, func(cur *Credentials) (*Credentials, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Update() error = %v, want %v", err, sentinel)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "second" {
		t.Errorf("failed Update changed stored token to %q", loaded.AccessToken)
	}
}

func TestFileStore_LockTimeout(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "creds.json"), 50*time.Millisecond)

	held := newFileLock(store.Path())
	if err := held.Lock(context.Background(), time.Second); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	defer held.Unlock()

	err := store.Save(context.Background(), &Credentials{AccessToken: "a"})
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("Save() error = %v, want ErrLockTimeout", err)
	}
}

func TestFileStore_ConcurrentReadersSeeWholeFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, &Credentials{AccessToken: strings.Repeat("x", 4096)}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(stop)
		for i := 0; i < 50; i++ {
			tok := strings.Repeat(string(rune('a'+i%26)), 4096)
			if err := store.Save(ctx, &Credentials{AccessToken: tok}); err != nil {
				t.Errorf("Save() error = %v", err)
				return
			}
		}
	}()

	var readErr error
	for readErr == nil {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		creds, err := store.Load(ctx)
		switch {
		case err != nil:
			readErr = err
		case len(creds.AccessToken) != 4096:
			readErr = fmt.Errorf("partial token of length %d", len(creds.AccessToken))
		}
	}
	wg.Wait()
	t.Errorf("Load() during writes: %v", readErr)
}

func TestFromToken_RetainsRefreshToken(t *testing.T) {
	now := time.Now()
	creds := FromToken(tokenWithoutRefresh(now.Add(time.Hour)), "kept", now)
	if creds.RefreshToken != "kept" {
		t.Errorf("RefreshToken = %q, want %q", creds.RefreshToken, "kept")
	}
	if creds.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", creds.ExpiresIn)
	}
}
