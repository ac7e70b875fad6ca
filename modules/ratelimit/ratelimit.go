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

// Package ratelimit implements per-key request limits over a shared counter
// store.
package ratelimit

import (
	"context"
	"math"
	"time"
)

type (
	// Key names the caller a limit applies to, e.g. a remote IP scoped to a route rule.
	Key string

	// RateLimiter decides whether one more hit for a key fits its window.
	RateLimiter interface {
		Allow(ctx context.Context, key Key) (Result, error)
	}

	// LimiterFactory builds a limiter for one configured rule.
	LimiterFactory func(limit int64, window time.Duration) RateLimiter

	// CounterStore holds the window counters. Redis shares them across
	// replicas; MemoryCounter keeps them per process.
	CounterStore interface {
		// Incr bumps key and keeps it alive for at least ttl.
		Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
		// Get returns 0 for a missing key.
		Get(ctx context.Context, key string) (int64, error)
	}

	// Result is a single Allow decision.
	Result struct {
		Allowed       bool
		Limit         int64
		Remaining     int64
		Window        time.Duration
		WindowResetIn time.Duration
		// Zero when Allowed.
		RetryAfter    time.Duration
	}
)

// RetryAfterSeconds rounds RetryAfter up for the Retry-After header. A denied
// result never advertises 0.
func (r Result) RetryAfterSeconds() int64 {
	if r.Allowed {
		return 0
	}
	return max(int64(math.Ceil(r.RetryAfter.Seconds())), 1)
}

// ResetSeconds is WindowResetIn rounded up to whole seconds.
func (r Result) ResetSeconds() int64 {
	return int64(math.Ceil(r.WindowResetIn.Seconds()))
}
