// Package upload implements the YouTube resumable upload protocol: a
// session is initiated with the video resource, then the file is sent as
// strictly ordered byte ranges until the server returns the created video.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/youtube/v3"

	"ytupload/auth"
	"ytupload/internal/retry"
	"ytupload/transport"
)

const (
	// DefaultChunkSize is the size of every chunk but the last.
	DefaultChunkSize = 1 << 20
	// DefaultChunkDelay is the pause after each chunk before the next one.
	DefaultChunkDelay = 2 * time.Second
	// DefaultPart is the resource parts written by the insert call.
	DefaultPart = "snippet,status"
	// DefaultContentType is announced for the media when none is set.
	DefaultContentType = "video/*"

	statusResumeIncomplete = 308
)

// Doer sends HTTP requests. *http.Client satisfies it; the client is
// expected to authorize requests itself.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls a single upload.
type Config struct {
	// UploadURL is the resumable insert endpoint.
	UploadURL string
	// ChunkSize must be a multiple of 256 KiB for the server to accept it.
	ChunkSize int64
	// ChunkDelay is the pause between one chunk's response and the next
	// chunk; the first chunk is sent immediately.
	ChunkDelay time.Duration
	// RequestTimeout bounds each HTTP request; zero means only ctx applies.
	RequestTimeout time.Duration
	// Retry governs session initiation. Chunks are never retried.
	Retry retry.Config
}

// Request describes what to upload.
type Request struct {
	FilePath string
	// Resource is JSON encoded as the video metadata.
	Resource any
	// Part lists the resource parts to write (default "snippet,status").
	Part string
	// Params are extra query parameters; empty values are dropped.
	Params      map[string]string
	ContentType string
}

// Uploader runs resumable uploads over a Doer.
type Uploader struct {
	client   Doer
	cfg      Config
	logger   *log.Logger
	progress ProgressFunc
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(u *Uploader) { u.logger = l }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(u *Uploader) { u.progress = fn }
}

// New creates an Uploader. A zero ChunkSize uses DefaultChunkSize.
func New(client Doer, cfg Config, opts ...Option) *Uploader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	u := &Uploader{
		client: client,
		cfg:    cfg,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload sends the file in req through a new resumable session and returns
// the created video. A failed chunk abandons the session; calling Upload
// again starts over from the first byte.
func (u *Uploader) Upload(ctx context.Context, req Request) (*youtube.Video, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return nil, &FileAccessError{Path: req.FilePath, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &FileAccessError{Path: req.FilePath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &FileAccessError{Path: req.FilePath, Err: errors.New("not a regular file")}
	}

	sess := newSession(info.Size(), u.cfg.ChunkSize)

	err = retry.Do(ctx, u.cfg.Retry, retryableInitiate, func(ctx context.Context) error {
		uri, err := u.initiate(ctx, req, sess.TotalBytes)
		if err != nil {
			u.logger.Printf("upload: initiate session %s: %v", sess.ID, err)
			return err
		}
		sess.URI = uri
		return nil
	})
	if err != nil {
		sess.Status = StatusFailed
		u.logger.Printf("upload: session %s %s: %v", sess.ID, sess.Status, err)
		return nil, fmt.Errorf("upload: initiate session: %w", err)
	}

	pacer := transport.NewPacer(u.cfg.ChunkDelay)
	sess.Status = StatusInProgress
	u.logger.Printf("upload: session %s %s for %s (%d bytes, %d chunks, %s between chunks)",
		sess.ID, sess.Status, req.FilePath, sess.TotalBytes, sess.Chunks(), pacer.Interval())

	var video *youtube.Video
	if sess.TotalBytes == 0 {
		video, err = u.finalizeEmpty(ctx, sess, req)
	} else {
		video, err = u.sendChunks(ctx, sess, pacer, f, req)
	}
	if err != nil {
		sess.Status = StatusFailed
		u.logger.Printf("upload: session %s %s after %d of %d bytes: %v",
			sess.ID, sess.Status, sess.BytesSent, sess.TotalBytes, err)
		return nil, err
	}

	sess.Status = StatusCompleted
	u.logger.Printf("upload: session %s %s, video %s", sess.ID, sess.Status, video.Id)
	return video, nil
}

// retryableInitiate retries transient failures but never an authorization
// failure surfaced by the client's token source.
func retryableInitiate(err error) bool {
	var refreshErr *auth.RefreshError
	if errors.As(err, &refreshErr) || auth.IsReauthRequired(err) {
		return false
	}
	return transport.IsTransient(err)
}

func (u *Uploader) sendChunks(ctx context.Context, sess *Session, pacer *transport.Pacer, r io.Reader, req Request) (*youtube.Video, error) {
	chunks := sess.Chunks()
	buf := make([]byte, sess.ChunkSize)

	for index := 1; sess.BytesSent < sess.TotalBytes; index++ {
		if err := pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("upload: stopped before chunk %d of %d: %w", index, chunks, err)
		}

		n := min(sess.ChunkSize, sess.TotalBytes-sess.BytesSent)
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return nil, &FileAccessError{Path: req.FilePath, Err: err}
		}

		start := sess.BytesSent
		rng := fmt.Sprintf("bytes %d-%d/%d", start, start+n-1, sess.TotalBytes)
		video, err := u.put(ctx, sess.URI, buf[:n], rng, contentType(req), start+n)
		pacer.Done()
		if err != nil {
			return nil, &ChunkUploadError{Index: index, Offset: start, Err: err}
		}

		sess.BytesSent += n
		if video != nil {
			sess.Status = StatusCompleted
		}
		if u.progress != nil {
			u.progress(Progress{
				SessionID:  sess.ID,
				Status:     sess.Status,
				Chunk:      index,
				Chunks:     chunks,
				BytesSent:  sess.BytesSent,
				TotalBytes: sess.TotalBytes,
			})
		}
		if video != nil {
			return video, nil
		}
	}

	return nil, &IncompleteUploadError{BytesSent: sess.BytesSent, TotalBytes: sess.TotalBytes}
}

func (u *Uploader) finalizeEmpty(ctx context.Context, sess *Session, req Request) (*youtube.Video, error) {
	video, err := u.put(ctx, sess.URI, nil, "bytes */0", contentType(req), 0)
	if err != nil {
		return nil, &ChunkUploadError{Index: 0, Offset: 0, Err: err}
	}
	if video == nil {
		return nil, &IncompleteUploadError{BytesSent: 0, TotalBytes: 0}
	}
	return video, nil
}

// initiate opens a resumable session and returns its URI.
func (u *Uploader) initiate(ctx context.Context, req Request, total int64) (string, error) {
	endpoint, err := url.Parse(u.cfg.UploadURL)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("parse upload url: %w", err))
	}

	part := req.Part
	if part == "" {
		part = DefaultPart
	}
	q := endpoint.Query()
	for k, v := range req.Params {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("uploadType", "resumable")
	q.Set("part", part)
	endpoint.RawQuery = q.Encode()

	body, err := json.Marshal(req.Resource)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("encode resource: %w", err))
	}

	ctx, cancel := u.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	httpReq.Header.Set("X-Upload-Content-Type", contentType(req))
	httpReq.Header.Set("X-Upload-Content-Length", strconv.FormatInt(total, 10))

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer drain(resp.Body)

	if err := transport.CheckResponse(resp); err != nil {
		return "", err
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", retry.Permanent(ErrNoSessionURI)
	}
	return loc, nil
}

// put sends one byte range. It returns the video once the server finalizes
// the upload and nil while more bytes are expected. acked is the byte count
// the server must report having stored after an incomplete response.
func (u *Uploader) put(ctx context.Context, uri string, chunk []byte, contentRange, mediaType string, acked int64) (*youtube.Video, error) {
	ctx, cancel := u.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, bytes.NewReader(chunk))
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(chunk))
	req.Header.Set("Content-Range", contentRange)
	req.Header.Set("Content-Type", mediaType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		video := &youtube.Video{}
		if err := json.NewDecoder(resp.Body).Decode(video); err != nil {
			return nil, fmt.Errorf("decode video resource: %w", err)
		}
		return video, nil
	case statusResumeIncomplete:
		if got := ackedBytes(resp.Header.Get("Range")); got != acked {
			return nil, fmt.Errorf("%w: server has %d bytes, sent %d", ErrRangeMismatch, got, acked)
		}
		return nil, nil
	default:
		return nil, transport.CheckResponse(resp)
	}
}

func (u *Uploader) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, u.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// ackedBytes parses a "bytes=0-N" Range header into N+1. A missing or
// malformed header means nothing was stored.
func ackedBytes(header string) int64 {
	_, last, ok := strings.Cut(strings.TrimPrefix(header, "bytes="), "-")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0
	}
	return n + 1
}

func contentType(req Request) string {
	if req.ContentType != "" {
		return req.ContentType
	}
	return DefaultContentType
}

func drain(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
