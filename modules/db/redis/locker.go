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

package redis

import (
	"fmt"

	"github.com/redis/rueidis/rueidislock"
)

// NewLocker builds a rueidislock.Locker on its own connection. Locks are keyed
// under the configured prefix.
func NewLocker(cfg RedisConfig) (rueidislock.Locker, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}
	clientOpt, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	// the locker waits on invalidation messages, which need client side tracking
	clientOpt.DisableCache = false

	locker, err := rueidislock.NewLocker(rueidislock.LockerOption{
		ClientOption:   clientOpt,
		KeyPrefix:      cfg.KeyPrefix + ":lock",
		KeyMajority:    1,
		NoLoopTracking: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: locker: %w", err)
	}
	return locker, nil
}
