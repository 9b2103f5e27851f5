package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// NonRetriableError marks a failure that retrying cannot fix: malformed
// configuration, a cyclic graph, a missing credential. The host substrate's
// retry policy must give up immediately on these. Everything not explicitly
// recognized as transient is treated as non-retriable by the executors.
type NonRetriableError struct {
	Err error
}

func (e *NonRetriableError) Error() string {
	return e.Err.Error()
}

func (e *NonRetriableError) Unwrap() error {
	return e.Err
}

// NewNonRetriableError wraps err as non-retriable.
func NewNonRetriableError(err error) *NonRetriableError {
	return &NonRetriableError{Err: err}
}

// NonRetriablef builds a non-retriable error from a format string.
func NonRetriablef(format string, args ...any) *NonRetriableError {
	return &NonRetriableError{Err: fmt.Errorf(format, args...)}
}

// IsNonRetriable reports whether err was classified non-retriable.
func IsNonRetriable(err error) bool {
	var nre *NonRetriableError

	return errors.As(err, &nre)
}

// ClassifyExternal applies the default classification to an error coming
// back from an external call. Already-classified errors pass through,
// provider rate limiting stays retriable for the host substrate's retry
// policy, and everything else fails fast as non-retriable.
func ClassifyExternal(prefix string, err error) error {
	if IsNonRetriable(err) {
		return err
	}

	if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
		return fmt.Errorf("%s: %w", prefix, err)
	}

	return NonRetriablef("%s: %v", prefix, err)
}
