package zapcard

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrQueueFull is returned synchronously by TaskQueue.Enqueue when the
	// pending list is at capacity. The submitted operation is never started.
	ErrQueueFull = errors.New("task queue is full")

	// ErrTaskTimeout is the rejection a caller sees when a queued task
	// exceeds the configured per-task deadline.
	ErrTaskTimeout = errors.New("task timed out")

	// ErrNotImplemented marks operations past the deposit step (payment
	// completion, card retrieval). They fail immediately and are never retried.
	ErrNotImplemented = errors.New("not implemented")

	// ErrSessionNotInitialized is returned by session steps invoked before
	// Initialize or after Close.
	ErrSessionNotInitialized = errors.New("session not initialized")
)

// InitializationError wraps a failure to establish the browser, page or
// checkout widget frame. The session tears down any partial resources
// before returning one of these.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ElementNotFoundError reports a required interactive element that could not
// be located even after a step's internal fallbacks.
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Selector)
}

// StepTimeoutError reports a waited-for condition that never appeared within
// the step's timeout. The retrier gets a shot at it before it surfaces.
type StepTimeoutError struct {
	Step    string
	Timeout time.Duration
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %q timed out after %v", e.Step, e.Timeout)
}

func isChromeAlreadyRunningError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Opening in existing browser session") ||
		strings.Contains(errStr, "ProcessSingleton") ||
		strings.Contains(errStr, "SingletonLock")
}

func isBrowserDownloadError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Access is denied") ||
		strings.Contains(errStr, "permission denied")
}

func isElementNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var enf *ElementNotFoundError
	if errors.As(err, &enf) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "cannot find element") ||
		strings.Contains(errStr, "element not found")
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var st *StepTimeoutError
	if errors.As(err, &st) {
		return true
	}
	return strings.Contains(err.Error(), "context deadline exceeded")
}
