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

// Package worker runs jobs on a fixed number of goroutines.
package worker

import (
	"context"
	"log/slog"
	"sync"
)

type Worker[Job any] func(context.Context, Job)

// BlockingPool consumes jobs with size goroutines until the channel is closed or
// ctx is done, then returns. A panicking job is logged and its goroutine keeps
// pulling jobs.
func BlockingPool[Job any](ctx context.Context, size int, jobs <-chan Job, worker Worker[Job]) {
	if size <= 0 {
		size = 1
	}
	wg := sync.WaitGroup{}
	for range size {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					runJob(ctx, worker, job)
				}
			}
		})
	}

	wg.Wait()
}

// wg.Go requires that func does not panic
func runJob[Job any](ctx context.Context, worker Worker[Job], job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "worker job panicked", slog.Any("panic", rec))
		}
	}()
	worker(ctx, job)
}

// Map applies fn to every item on a pool of size goroutines and returns the
// results in input order. Items not started before ctx is done keep the zero
// Result.
func Map[In, Out any](ctx context.Context, size int, items []In, fn func(context.Context, In) Out) []Out {
	type indexed struct {
		i  int
		in In
	}

	out := make([]Out, len(items))
	jobs := make(chan indexed)
	go func() {
		defer close(jobs)
		for i, in := range items {
			select {
			case <-ctx.Done():
				return
			case jobs <- indexed{i: i, in: in}:
			}
		}
	}()

	// each index is written by exactly one job
	BlockingPool(ctx, size, jobs, func(ctx context.Context, j indexed) {
		out[j.i] = fn(ctx, j.in)
	})
	return out
}
