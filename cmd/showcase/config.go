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

package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	APIURL              string `env:"SHOWCASE_API_URL" envDefault:"http://localhost:3000"`
	GitHubAPIURL        string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	GitHubToken         string `env:"GITHUB_TOKEN"`
	GitHubRatePerMinute int    `env:"GITHUB_RATE_PER_MINUTE" envDefault:"60"`
	ImportConcurrency   int    `env:"IMPORT_CONCURRENCY" envDefault:"4"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"warn"`
}

func loadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var errs []error
	for name, raw := range map[string]string{
		"SHOWCASE_API_URL": cfg.APIURL,
		"GITHUB_API_URL":   cfg.GitHubAPIURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw))
		}
	}
	if cfg.GitHubRatePerMinute < 0 {
		errs = append(errs, fmt.Errorf("GITHUB_RATE_PER_MINUTE must be >= 0, got %d", cfg.GitHubRatePerMinute))
	}
	if cfg.ImportConcurrency < 1 {
		errs = append(errs, fmt.Errorf("IMPORT_CONCURRENCY must be >= 1, got %d", cfg.ImportConcurrency))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
