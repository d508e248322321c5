package memory

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTransient marks service errors worth retrying: timeouts,
	// rate limits, and 5xx responses.
	ErrTransient = errors.New("transient service error")

	// ErrRequestFailed marks permanent request failures (4xx other than
	// 408/429). Retrying these would only repeat the same rejection.
	ErrRequestFailed = errors.New("request failed")
)

// IsTransient reports whether an error should take the retry path.
// Used as the Retryable predicate of the shared retry policy.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// classifyStatus maps an HTTP status code to the error taxonomy.
func classifyStatus(status int, body string) error {
	switch {
	case status == 408 || status == 429 || status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrTransient, status, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, status, body)
	}
}
