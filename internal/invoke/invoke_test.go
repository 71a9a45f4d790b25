package invoke

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type throttleErr struct{}

func (throttleErr) Error() string   { return "rate limited" }
func (throttleErr) Retryable() bool { return true }

type badRequestErr struct{}

func (badRequestErr) Error() string { return "bad request" }

func fastPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2,
		Deadline:     time.Second,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	in := New(fastPolicy(), nil)
	calls := 0
	text, err := in.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, calls)
}

func TestDo_PersistentThrottlingExhaustsRetries(t *testing.T) {
	in := New(fastPolicy(), nil)
	calls := 0
	_, err := in.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", throttleErr{}
	})
	require.Error(t, err)
	// maxRetries + 1 total attempts.
	assert.Equal(t, 4, calls)
	assert.ErrorAs(t, err, &throttleErr{})
}

func TestDo_RecoversAfterTransientFailures(t *testing.T) {
	in := New(fastPolicy(), nil)
	calls := 0
	text, err := in.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", throttleErr{}
		}
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	in := New(fastPolicy(), nil)
	calls := 0
	_, err := in.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", badRequestErr{}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_DeadlineWinsRace(t *testing.T) {
	p := fastPolicy()
	p.Deadline = 20 * time.Millisecond
	in := New(p, nil)

	start := time.Now()
	_, err := in.Do(context.Background(), func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDo_DeadlineStopsRetryLoop(t *testing.T) {
	p := Policy{
		MaxRetries:   10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2,
		Deadline:     30 * time.Millisecond,
	}
	in := New(p, nil)

	var calls atomic.Int32
	_, err := in.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", throttleErr{}
	})
	require.Error(t, err)

	// Give any leaked retry loop a chance to run more attempts.
	before := calls.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, before, calls.Load(), "retry loop kept running past the deadline")
}

func TestDelaySchedule(t *testing.T) {
	in := New(DefaultPolicy(), nil)
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		5000 * time.Millisecond, // capped at maxDelay
		5000 * time.Millisecond,
	}
	for attempt, w := range want {
		if got := in.Delay(attempt); got != w {
			t.Errorf("Delay(%d) = %s, want %s", attempt, got, w)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(throttleErr{}))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(badRequestErr{}))
	assert.False(t, IsRetryable(errors.New("malformed credentials")))
	assert.False(t, IsRetryable(nil))
}
