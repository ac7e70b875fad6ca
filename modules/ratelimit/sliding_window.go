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
	"math/bits"
	"time"

	"showcase/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a sliding window with two adjacent fixed
// windows (current + previous), weighting the previous one by how much of it still
// overlaps the sliding window.
type SlidingWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string

	limit  uint64
	window time.Duration
}

func SlidingWindowFactory(c clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		return NewSlidingWindowRateLimiter(c, counter, keyPrefix, l, w)
	}
}

func NewSlidingWindowRateLimiter(c clock.Clock, counter CounterStore, keyPrefix string, limit int64, window time.Duration) *SlidingWindowRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowRateLimiter{
		clock:     c,
		counter:   counter,
		keyPrefix: keyPrefix,
		limit:     uint64(max(limit, 0)),
		window:    window,
	}
}

// Allow implements RateLimiter.
func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	nowNs := s.clock.Now().UnixNano()
	windowNs := s.window.Nanoseconds()

	idx := nowNs / windowNs
	current, err := s.counter.Incr(ctx, s.buildKey(key, idx), s.window*2)
	if err != nil {
		return Result{}, err
	}
	previous, err := s.counter.Get(ctx, s.buildKey(key, idx-1))
	if err != nil {
		return Result{}, err
	}

	elapsedNs := min(max(nowNs-idx*windowNs, 0), windowNs)
	prevWeightNs := windowNs - elapsedNs
	resetIn := max(s.window-time.Duration(elapsedNs), 0)

	usage := weightedUsage(uint64(max(current, 0)), uint64(max(previous, 0)), uint64(windowNs), uint64(prevWeightNs))
	allowed := usage.lessOrEqual(mul128(s.limit, uint64(windowNs)))

	used := usage.ceilDiv(uint64(windowNs))
	remaining := uint64(0)
	if used < s.limit {
		remaining = s.limit - used
	}

	result := Result{
		Allowed:       allowed,
		Remaining:     int64(remaining),
		RetryAfter:    resetIn,
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: resetIn,
	}
	if allowed {
		result.RetryAfter = 0
	}
	return result, nil
}

func (s *SlidingWindowRateLimiter) buildKey(key Key, windowIdx int64) string {
	return fmt.Sprintf("%s:%s:%d", s.keyPrefix, key, windowIdx)
}

// uint128 keeps the weighted usage exact; counts multiplied by nanosecond windows
// overflow 64 bits quickly and floats make consecutive requests report equal
// remaining budgets.
type uint128 struct{ hi, lo uint64 }

func mul128(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{hi, lo}
}

// weightedUsage = current*window + previous*prevWeight
func weightedUsage(current, previous, window, prevWeight uint64) uint128 {
	cur := mul128(current, window)
	prev := mul128(previous, prevWeight)
	lo, carry := bits.Add64(cur.lo, prev.lo, 0)
	hi, _ := bits.Add64(cur.hi, prev.hi, carry)
	return uint128{hi, lo}
}

func (u uint128) lessOrEqual(o uint128) bool {
	return u.hi < o.hi || (u.hi == o.hi && u.lo <= o.lo)
}

// ceilDiv returns ceil(u / d), saturating at MaxUint64.
func (u uint128) ceilDiv(d uint64) uint64 {
	if u.hi == 0 {
		q := u.lo / d
		if u.lo%d != 0 {
			q++
		}
		return q
	}
	if u.hi >= d {
		return ^uint64(0)
	}
	q, r := bits.Div64(u.hi, u.lo, d)
	if r != 0 && q != ^uint64(0) {
		q++
	}
	return q
}
