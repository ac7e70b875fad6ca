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

import "time"

// RedisConfig configures the optional redis backend for the shared rate limit counters.
//
// URL is a standard Redis URI, for example:
//
//   - Single:  redis://:password@localhost:6379/0
//   - TLS:     rediss://:password@my-redis.example.com:6379/0
//   - Cluster: redis://:password@host1:6379/0?addr=host2:6379&addr=host3:6379
//
// An empty URL means redis is not used at all; callers fall back to in-process counters.
type RedisConfig struct {
	URL string `env:"URL"`

	// Optional: client name visible in CLIENT LIST.
	ClientName string `env:"CLIENT_NAME" envDefault:"showcase-api"`

	// SkipTLSVerify disables TLS certificate verification for rediss:// URLs.
	SkipTLSVerify bool `env:"SKIP_TLS_VERIFY"`

	// RequireTLS rejects plaintext redis:// URLs.
	RequireTLS bool `env:"REQUIRE_TLS"`

	DisableRetry     bool          `env:"DISABLE_RETRY"`
	AlwaysPipelining bool          `env:"ALWAYS_PIPELINING"`
	ConnWriteTimeout time.Duration `env:"CONN_WRITE_TIMEOUT"`

	// Counter keys are written under this prefix.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"showcase:rl"`

	// Wrap the client with rueidisotel.
	EnableOtel bool `env:"ENABLE_OTEL" envDefault:"true"`
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}
