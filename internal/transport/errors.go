package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrBlocked is returned when the retry budget runs out while every
	// attempt kept hitting an anti-bot challenge page.
	ErrBlocked = errors.New("blocked by anti-bot challenge")

	// ErrTimeout is returned when an attempt deadline or the caller's
	// deadline expired.
	ErrTimeout = errors.New("request timed out")
)

// StatusError reports a non-2xx response that carried no challenge markers.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
