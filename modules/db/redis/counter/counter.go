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

package counter

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"showcase/modules/ratelimit"
)

var (
	_ ratelimit.CounterStore = (*RedisCounter)(nil)

	//go:embed incr_expr.lua
	atomicIncrLua string

	// KEYS[1] = full key, ARGV[1] = TTL in milliseconds for a new counter.
	// INCR and PEXPIRE run atomically so a counter never outlives its window.
	luaAtomicIncrWithTTL = rueidis.NewLuaScript(atomicIncrLua)
)

// RedisCounter stores rate limit counters in redis so every API replica shares them.
type RedisCounter struct {
	client rueidis.Client
	prefix string
}

// NewRedisCounterStore wraps a rueidis.Client as a CounterStore.
// A non-empty prefix turns keys into prefix + ":" + key.
func NewRedisCounterStore(client rueidis.Client, prefix string) *RedisCounter {
	if prefix != "" && prefix[len(prefix)-1] != ':' {
		prefix += ":"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (r *RedisCounter) buildKey(key string) string {
	return r.prefix + key
}

// Get implements ratelimit.CounterStore.
func (r *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	bs, err := r.client.Do(ctx, r.client.B().Get().Key(r.buildKey(key)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis counter get: %w", err)
	}

	n, err := strconv.ParseInt(string(bs), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis counter get parse: %w", err)
	}
	return n, nil
}

// Incr implements ratelimit.CounterStore.
func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ms := max(ttl.Milliseconds(), 1)
	val, err := luaAtomicIncrWithTTL.Exec(ctx, r.client,
		[]string{r.buildKey(key)},
		[]string{strconv.FormatInt(ms, 10)},
	).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis counter incr: %w", err)
	}
	return val, nil
}
