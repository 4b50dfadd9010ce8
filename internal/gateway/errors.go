package gateway

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnauthorized is returned for 401 responses; the session-expired event has already fired.
	ErrUnauthorized = errors.New("session expired")
	ErrNotFound     = errors.New("not found")
	// ErrTransport wraps failures where no HTTP response was received.
	ErrTransport = errors.New("booking backend unreachable")
)

// ConflictError is a business-rule rejection (HTTP 409): double booking, late cancellation,
// already cancelled. Message is the server's human-readable text.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

// HTTPError is any other non-success status.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsConflict reports whether err is a conflict and returns its server message.
func IsConflict(err error) (string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Message, true
	}
	return "", false
}

var alreadyCancelledRe = regexp.MustCompile(`(?i)\balready\s+(been\s+)?cancel+ed\b`)

// isAlreadyCancelled reports a conflict whose message says the reservation is already
// cancelled.
func isAlreadyCancelled(err error) bool {
	msg, ok := IsConflict(err)
	return ok && alreadyCancelledRe.MatchString(msg)
}
