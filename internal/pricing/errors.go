package pricing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TimeoutError reports that a retrieval did not complete within budget.
type TimeoutError struct {
	URL     string
	Budget  string
	Wrapped error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout fetching %s after %s", e.URL, e.Budget)
}

func (e *TimeoutError) Unwrap() error {
	return e.Wrapped
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d fetching %s", e.Code, e.URL)
}

// IsTimeout reports whether err represents a transport timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTimeoutLike reports whether err suggests throttling rather than a
// permanent failure: a timeout, HTTP 429, or HTTP 503. Timeout-like
// outcomes advance the per-source auto-skip counter.
func IsTimeoutLike(err error) bool {
	if err == nil {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code == http.StatusServiceUnavailable
	}
	return false
}
