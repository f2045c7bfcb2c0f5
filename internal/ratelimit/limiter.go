// Package ratelimit rejects deep-link calls once a per-identifier quota
// for a time window is exhausted. Both successful and failed dispatches
// consume quota: the limiter bounds total work, not successful work.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLimitExceeded is the sentinel for rate-limit rejections.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Decision is the outcome of one quota check.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter checks and consumes quota for a caller identifier (session id
// or client IP).
type Limiter interface {
	Allow(ctx context.Context, identifier string) (Decision, error)
}

// LimitError carries retry information for a rejected call. It matches
// ErrLimitExceeded under errors.Is.
type LimitError struct {
	Identifier string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
	}
	return "rate limit exceeded"
}

// Is matches ErrLimitExceeded so callers can use errors.Is.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}
