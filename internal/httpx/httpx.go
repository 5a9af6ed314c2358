// Package httpx holds the retry policy shared by the outbound gateway
// clients (SMS, chat completions, maps, email).
package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusError is returned by clients for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "<empty body>"
	}
	if len(body) > 1000 {
		body = body[:1000] + "..."
	}
	return e.Service + " http " + strconv.Itoa(e.StatusCode) + ": " + body
}

func (e *StatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError treats caller cancellation as final; only transport
// timeouts and retryable statuses are retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}

func JitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs attempt until it succeeds, returns a non-retryable error, or
// maxRetries extra attempts have been spent. onRetry is called before each
// backoff sleep.
func Retry(ctx context.Context, maxRetries int, baseBackoff time.Duration, attempt func() (*http.Response, error), onRetry func(attempt int, sleep time.Duration, err error)) error {
	backoff := baseBackoff
	for try := 0; ; try++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := attempt()
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) || try >= maxRetries {
			return err
		}

		sleepFor := JitterSleep(RetryAfterDuration(resp, backoff, 10*time.Second))
		if onRetry != nil {
			onRetry(try+1, sleepFor, err)
		}
		if err := Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}
