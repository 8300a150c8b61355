package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"google.golang.org/api/googleapi"
)

// ErrNoResponse indicates no response was received from the server.
var ErrNoResponse = fmt.Errorf("no response received")

// CheckResponse returns nil for 2xx responses and a *googleapi.Error
// carrying the status code and decoded error body otherwise.
func CheckResponse(resp *http.Response) error {
	if resp == nil {
		return ErrNoResponse
	}
	return googleapi.CheckResponse(resp)
}

// IsTransient reports whether err is worth retrying: 429 and 5xx API
// errors and network failures. Context errors never are. Errors returned by
// http.Client are classified by their cause, so a failed TLS handshake or a
// token source error surfaced through the transport is not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	if errors.Is(err, ErrNoResponse) {
		return true
	}

	// *url.Error implements net.Error itself; only its cause counts.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return isNetworkFailure(err)
}

// isNetworkFailure matches dropped connections, refused dials and timeouts.
func isNetworkFailure(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
