package chrome

import (
	"context"
	"errors"
	"strings"
)

// IsSessionInterrupted reports whether err means the browser or tab went away
// underneath us rather than the page itself failing.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"target closed", "invalid context", "websocket: close", "connection reset", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// browserGone is IsSessionInterrupted minus our own deadlines, which only mean
// a page was slow.
func browserGone(err error) bool {
	return IsSessionInterrupted(err) && !errors.Is(err, context.DeadlineExceeded)
}
