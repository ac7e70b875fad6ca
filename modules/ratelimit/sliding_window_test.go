package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showcase/modules/clock"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestSlidingWindow_AllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: time.Unix(1_700_000_040, 0)} // window boundary at :00
	rl := NewSlidingWindowRateLimiter(clk, NewMemoryCounter(clk), "test", 3, time.Minute)

	for i := range 3 {
		res, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, int64(2-i), res.Remaining)
		assert.Zero(t, res.RetryAfter)
	}

	res, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, int64(3), res.Limit)
	assert.Positive(t, res.RetryAfter)

	// other keys are independent
	res, err = rl.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindow_PreviousWindowDecays(t *testing.T) {
	ctx := context.Background()
	start := time.Unix(1_700_000_040, 0).Truncate(time.Minute)
	clk := &fakeClock{now: start}
	rl := NewSlidingWindowRateLimiter(clk, NewMemoryCounter(clk), "test", 2, time.Minute)

	for range 2 {
		_, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
	}

	// just into the next window the previous one still weighs almost fully
	clk.now = start.Add(time.Minute + time.Second)
	res, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// two windows later the previous window is empty again
	clk.now = start.Add(3 * time.Minute)
	res, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryCounter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	c := NewMemoryCounter(clock.Func(func() time.Time { return now }))

	n, err := c.Incr(ctx, "a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = c.Incr(ctx, "a", time.Second)
	assert.Equal(t, int64(2), n)

	got, _ := c.Get(ctx, "a")
	assert.Equal(t, int64(2), got)

	now = now.Add(time.Second)
	got, _ = c.Get(ctx, "a")
	assert.Zero(t, got)

	n, _ = c.Incr(ctx, "a", time.Second)
	assert.Equal(t, int64(1), n)
}

func TestResult_HeaderSeconds(t *testing.T) {
	denied := Result{RetryAfter: 1500 * time.Millisecond, WindowResetIn: 1500 * time.Millisecond}
	assert.Equal(t, int64(2), denied.RetryAfterSeconds())
	assert.Equal(t, int64(2), denied.ResetSeconds())

	assert.Equal(t, int64(1), Result{}.RetryAfterSeconds(), "a denial never says retry now")
	assert.Zero(t, Result{Allowed: true, RetryAfter: time.Second}.RetryAfterSeconds())
}
