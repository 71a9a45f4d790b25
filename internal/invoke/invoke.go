package invoke

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry and deadline behavior for resilient invocations.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Deadline     time.Duration
}

// DefaultPolicy returns the standard invocation policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1000 * time.Millisecond,
		MaxDelay:     5000 * time.Millisecond,
		Multiplier:   2,
		Deadline:     25 * time.Second,
	}
}

// Retryable marks errors that are safe to retry (throttling, 5xx).
// Provider error types implement this.
type Retryable interface {
	Retryable() bool
}

// Op is a single attempt against a remote generation endpoint.
type Op func(ctx context.Context) (string, error)

// Invoker wraps calls to remote generation endpoints with bounded retries,
// exponential backoff, and an overall deadline.
type Invoker struct {
	policy Policy
	log    *zap.Logger
}

// New creates an Invoker with the given policy. A nil logger is replaced
// with a no-op logger.
func New(policy Policy, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 2
	}
	return &Invoker{policy: policy, log: log}
}

// Do runs op until it succeeds, a non-retryable error occurs, retries are
// exhausted, or the overall deadline expires. The caller stops waiting as
// soon as the deadline fires; the deadline is also propagated into the retry
// loop so an expired deadline stops further attempts rather than merely
// outracing them.
func (in *Invoker) Do(ctx context.Context, op Op) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, in.policy.Deadline)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := in.retry(ctx, op)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("invocation deadline (%s) exceeded: %w", in.policy.Deadline, ctx.Err())
	case out := <-done:
		return out.text, out.err
	}
}

func (in *Invoker) retry(ctx context.Context, op Op) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= in.policy.MaxRetries; attempt++ {
		text, err := op(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
		if attempt == in.policy.MaxRetries {
			break
		}

		delay := in.Delay(attempt)
		in.log.Debug("retrying invocation",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("retries exhausted after %d attempts: %w", in.policy.MaxRetries+1, lastErr)
}

// Delay returns the backoff delay after the given zero-based attempt:
// min(initialDelay * multiplier^attempt, maxDelay). No jitter.
func (in *Invoker) Delay(attempt int) time.Duration {
	d := float64(in.policy.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= in.policy.Multiplier
	}
	if max := float64(in.policy.MaxDelay); d > max {
		d = max
	}
	return time.Duration(d)
}

// IsRetryable reports whether an error is a throttling, timeout, or
// server-side signal. Everything else propagates immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
