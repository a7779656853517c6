// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"time"

	"brawler/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a sliding window with two fixed ones:
// the previous window's count is weighted by how much of it still overlaps
// the sliding window ending now.
type SlidingWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string

	limit  uint64
	window time.Duration
}

// SlidingWindowFactory builds limiters sharing one clock and counter store.
// Non-positive windows fall back to one minute and negative limits to zero.
func SlidingWindowFactory(clock clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		if w <= 0 {
			w = time.Minute
		}
		return &SlidingWindowRateLimiter{
			clock:     clock,
			counter:   counter,
			keyPrefix: keyPrefix,
			limit:     uint64(max(l, 0)),
			window:    w,
		}
	}
}

// Allow implements RateLimiter. Every call counts, denied ones included.
func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	windowNs := s.window.Nanoseconds()
	nowNs := s.clock.Now().UnixNano()
	idx := nowNs / windowNs

	current, err := s.counter.Incr(ctx, s.buildKey(key, idx), 2*s.window)
	if err != nil {
		return Result{}, fmt.Errorf("sliding window: incr: %w", err)
	}
	previous, err := s.counter.Get(ctx, s.buildKey(key, idx-1))
	if err != nil {
		return Result{}, fmt.Errorf("sliding window: get: %w", err)
	}

	elapsed := min(max(nowNs-idx*windowNs, 0), windowNs)
	usage := weightedUsage(max(current, 0), max(previous, 0), windowNs, windowNs-elapsed)
	budget := mul128(s.limit, uint64(windowNs))
	used := usage.ceilDiv(uint64(windowNs))

	res := Result{
		Allowed:       !budget.less(usage),
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: time.Duration(windowNs - elapsed),
	}
	if used < s.limit {
		res.Remaining = int64(s.limit - used)
	}
	if !res.Allowed {
		res.RetryAfter = res.WindowResetIn
	}
	return res, nil
}

func (s *SlidingWindowRateLimiter) buildKey(key Key, windowIdx int64) string {
	return fmt.Sprintf("%s:%s:%d", s.keyPrefix, key, windowIdx)
}

// u128 keeps usage in request-nanoseconds exact; float64 rounding would make
// two consecutive requests report the same remaining budget.
type u128 struct{ hi, lo uint64 }

func mul128(a, b uint64) u128 {
	hi, lo := bits.Mul64(a, b)
	return u128{hi, lo}
}

func (a u128) add(b u128) u128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi, _ := bits.Add64(a.hi, b.hi, carry)
	return u128{hi, lo}
}

func (a u128) less(b u128) bool {
	return a.hi < b.hi || (a.hi == b.hi && a.lo < b.lo)
}

// ceilDiv returns ceil(a/d), saturating at MaxUint64 when the quotient does not fit.
func (a u128) ceilDiv(d uint64) uint64 {
	if a.hi >= d {
		return math.MaxUint64
	}
	q, r := bits.Div64(a.hi, a.lo, d)
	if r != 0 && q != math.MaxUint64 {
		q++
	}
	return q
}

// weightedUsage is current*window + previous*overlap, in request-nanoseconds.
func weightedUsage(current, previous, windowNs, overlapNs int64) u128 {
	return mul128(uint64(current), uint64(windowNs)).add(mul128(uint64(previous), uint64(overlapNs)))
}
