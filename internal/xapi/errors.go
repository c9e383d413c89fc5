package xapi

import (
	"fmt"
	"net/http"
	"time"
)

// ErrStatus indicates the LRS answered with a non-success status code.
type ErrStatus struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrStatus) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("LRS returned %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("LRS returned %d", e.Code)
}

// Temporary reports whether the request may succeed if repeated.
func (e *ErrStatus) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// ErrUnavailable indicates the LRS could not be reached.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LRS unavailable: %v", e.Err)
	}
	return "LRS unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }
