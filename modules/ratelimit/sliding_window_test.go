package ratelimit

import (
	"context"
	"math"
	"testing"
	"time"

	"brawler/modules/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int64, window time.Duration) (RateLimiter, *clock.ManualClock) {
	t.Helper()
	// start on a window boundary so the previous window carries no weight
	c := clock.NewManualClock(time.Unix(0, 0).Add(1000 * window))
	return SlidingWindowFactory(c, NewMemoryCounter(c), "test")(limit, window), c
}

func TestSlidingWindow_AllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	l, _ := newLimiter(t, 3, time.Minute)

	for i := range 3 {
		res, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, int64(2-i), res.Remaining)
		assert.Zero(t, res.RetryAfter)
	}

	res, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newLimiter(t, 1, time.Minute)

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindow_PreviousWindowDecays(t *testing.T) {
	ctx := context.Background()
	l, c := newLimiter(t, 2, time.Minute)

	for range 2 {
		res, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	// halfway through the next window the previous one still weighs 50%
	c.Advance(time.Minute + 30*time.Second)
	res, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// two full windows later nothing is left
	c.Advance(2 * time.Minute)
	res, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryCounter_Expiry(t *testing.T) {
	ctx := context.Background()
	c := clock.NewManualClock(time.Unix(100, 0))
	m := NewMemoryCounter(c)

	n, err := m.Incr(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Incr(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	c.Advance(time.Second)
	n, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _ = m.Incr(ctx, "other", time.Second)
	c.Advance(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
}

func TestU128_CeilDiv(t *testing.T) {
	assert.Equal(t, uint64(2), mul128(3, 10).ceilDiv(20))
	assert.Equal(t, uint64(3), mul128(3, 20).ceilDiv(20))
	assert.Equal(t, uint64(math.MaxUint64), u128{hi: 5, lo: 0}.ceilDiv(5))
	assert.True(t, mul128(1, 10).less(mul128(2, 10)))
	assert.False(t, mul128(2, 10).less(mul128(2, 10)))
}

func TestSlidingWindowFactory_Defaults(t *testing.T) {
	c := clock.NewManualClock(time.Unix(0, 0))
	l := SlidingWindowFactory(c, NewMemoryCounter(c), "test")(-5, 0).(*SlidingWindowRateLimiter)
	assert.Equal(t, time.Minute, l.window)
	assert.Zero(t, l.limit)
}
