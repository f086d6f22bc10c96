package service

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"time"
)

// RetryPolicy is the single retry/backoff strategy applied to provider calls.
// Attempts beyond the first wait InitialBackoff doubled per attempt, capped
// at MaxBackoff. Retryable decides whether an error is worth another attempt.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

// DefaultEmailRetryPolicy returns the policy used for SMTP submissions
func DefaultEmailRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Retryable:      IsTransientSMTPError,
	}
}

// Backoff returns the delay before the given retry attempt (1-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs fn until it succeeds, exhausts MaxAttempts, fails permanently, or
// the context is cancelled. onRetry, when non-nil, is invoked before each
// retry sleep.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			select {
			case <-time.After(p.Backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// IsTransientSMTPError classifies an SMTP submission error. 4xx reply codes
// are transient per RFC 5321, as are network timeouts; 5xx codes are
// permanent rejections and retrying them only burns provider quota.
func IsTransientSMTPError(err error) bool {
	if err == nil {
		return false
	}

	var proto *textproto.Error
	if errors.As(err, &proto) {
		return proto.Code >= 400 && proto.Code < 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Connection-level failures (dial refused, broken pipe) are transient
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
