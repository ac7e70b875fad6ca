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

// Package locking runs a task while holding a redis lock, so that only one
// process performs it at a time (e.g. schema migrations on rollout).
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/rueidis/rueidislock"

	"showcase/modules/clock"
)

// ErrLockNotAcquired is returned in try-once mode when another process holds the lock.
var ErrLockNotAcquired = errors.New("locking: lock not acquired")

type (
	// Locker is the subset of rueidislock.Locker the guard needs.
	Locker interface {
		WithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
		TryWithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
	}

	TaskFunc func(ctx context.Context) error

	// Guard serializes named tasks across processes.
	Guard struct {
		locker Locker
		clock  clock.Clock

		// block until the lock frees up instead of giving up at once
		wait           bool
		acquireTimeout time.Duration
		maxRun         time.Duration
	}

	Option func(*Guard)
)

// WithTryOnce makes Run return ErrLockNotAcquired instead of waiting.
func WithTryOnce() Option {
	return func(g *Guard) { g.wait = false }
}

// WithAcquireTimeout bounds how long Run waits for the lock.
func WithAcquireTimeout(d time.Duration) Option {
	return func(g *Guard) { g.acquireTimeout = d }
}

// WithMaxRun cancels the task context after d.
func WithMaxRun(d time.Duration) Option {
	return func(g *Guard) { g.maxRun = d }
}

func WithClock(c clock.Clock) Option {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

func NewGuard(locker Locker, opts ...Option) *Guard {
	g := &Guard{
		locker:         locker,
		clock:          clock.RealClock{},
		wait:           true,
		acquireTimeout: time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Run acquires the lock called name and runs task under it. The task context is
// cancelled if the lock is lost. The lock is released when Run returns.
func (g *Guard) Run(ctx context.Context, name string, task TaskFunc) error {
	if name == "" {
		return errors.New("locking: lock name must not be empty")
	}
	if task == nil {
		return errors.New("locking: task must not be nil")
	}

	start := g.clock.Now()
	lockCtx, release, err := g.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	slog.InfoContext(ctx, "locking: lock acquired",
		slog.String("lock.name", name),
		slog.Duration("lock.acquire_latency", clock.Since(g.clock, start)),
	)

	var (
		taskCtx context.Context
		cancel  context.CancelFunc
	)
	if g.maxRun > 0 {
		taskCtx, cancel = context.WithTimeout(lockCtx, g.maxRun)
	} else {
		taskCtx, cancel = context.WithCancel(lockCtx)
	}
	defer cancel()

	taskStart := g.clock.Now()
	err = task(taskCtx)
	slog.InfoContext(ctx, "locking: task finished",
		slog.String("lock.name", name),
		slog.Duration("task.duration", clock.Since(g.clock, taskStart)),
		slog.Any("task.error", err),
	)
	return err
}

func (g *Guard) acquire(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if !g.wait {
		lockCtx, release, err := g.locker.TryWithContext(ctx, name)
		switch {
		case errors.Is(err, rueidislock.ErrNotLocked):
			slog.InfoContext(ctx, "locking: lock held by another process", slog.String("lock.name", name))
			return nil, nil, ErrLockNotAcquired
		case err != nil:
			return nil, nil, fmt.Errorf("locking: try-acquire %q: %w", name, err)
		}
		return lockCtx, release, nil
	}

	// the lock context derives from acqCtx; the timeout must not cancel a held lock
	acqCtx, stop := context.WithCancel(ctx)
	timedOut := false
	var timer *time.Timer
	if g.acquireTimeout > 0 {
		timer = time.AfterFunc(g.acquireTimeout, stop)
	}

	lockCtx, release, err := g.locker.WithContext(acqCtx, name)
	if timer != nil && !timer.Stop() {
		timedOut = true
	}
	switch {
	case err == nil && !timedOut:
		return lockCtx, func() { release(); stop() }, nil
	case err == nil:
		release()
	}
	stop()

	if timedOut && ctx.Err() == nil {
		return nil, nil, fmt.Errorf("locking: acquire %q: %w", name, context.DeadlineExceeded)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, nil, err
	}
	if err == nil {
		err = ctx.Err()
	}
	return nil, nil, fmt.Errorf("locking: acquire %q: %w", name, err)
}
