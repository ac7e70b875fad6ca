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
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisotel"
)

var ErrEmptyURL = errors.New("redis: URL must not be empty")

// NewRueidisClient builds a rueidis.Client from RedisConfig and PINGs it so a bad
// address fails at startup rather than on the first rate limited request.
// Client side caching stays off; the counters are write-heavy.
func NewRueidisClient(ctx context.Context, cfg RedisConfig) (rueidis.Client, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}

	clientOpt, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	var cli rueidis.Client
	if cfg.EnableOtel {
		cli, err = rueidisotel.NewClient(clientOpt)
	} else {
		cli, err = rueidis.NewClient(clientOpt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error during rueidis init", slog.Any("error", err))
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := cli.Do(pingCtx, cli.B().Ping().Build()).Error(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	slog.Info("rueidis: connected",
		slog.String("mode", string(cli.Mode())),
		slog.String("client_name", cfg.ClientName),
	)
	return cli, nil
}

func clientOptions(cfg RedisConfig) (rueidis.ClientOption, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return rueidis.ClientOption{}, fmt.Errorf("redis: parse url: %w", err)
	}
	if u.Scheme == "redis" {
		if cfg.RequireTLS {
			return rueidis.ClientOption{}, errors.New("redis: RequireTLS=true but URL uses redis:// (plaintext); use rediss://")
		}
		if cfg.SkipTLSVerify {
			slog.Warn("redis: redis:// URL disables TLS even though SkipTLSVerify is set",
				slog.String("host", u.Hostname()),
			)
		}
	}

	clientOpt, err := rueidis.ParseURL(cfg.URL)
	if err != nil {
		return rueidis.ClientOption{}, fmt.Errorf("redis: %w", err)
	}

	clientOpt.ClientName = cfg.ClientName
	clientOpt.DisableRetry = cfg.DisableRetry
	clientOpt.DisableCache = true
	clientOpt.AlwaysPipelining = cfg.AlwaysPipelining
	if cfg.ConnWriteTimeout > 0 {
		clientOpt.ConnWriteTimeout = cfg.ConnWriteTimeout
	}

	if cfg.SkipTLSVerify && clientOpt.TLSConfig != nil {
		tc := clientOpt.TLSConfig.Clone()
		tc.InsecureSkipVerify = true //nolint:gosec
		clientOpt.TLSConfig = tc
	} else if cfg.SkipTLSVerify && u.Scheme == "rediss" {
		clientOpt.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return clientOpt, nil
}
