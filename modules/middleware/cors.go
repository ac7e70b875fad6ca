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

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

type CORSConfig struct {
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	AllowedMethods   []string `env:"ALLOWED_METHODS" envDefault:"GET,HEAD,PUT,PATCH,POST,DELETE" envSeparator:","`
	AllowedHeaders   []string `env:"ALLOWED_HEADERS" envDefault:"Content-Type,Authorization" envSeparator:","`
	ExposedHeaders   []string `env:"EXPOSED_HEADERS" envDefault:"Location,Retry-After,X-RateLimit-Limit,X-RateLimit-Remaining" envSeparator:","`
	AllowCredentials bool     `env:"ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"MAX_AGE" envDefault:"600"`
}

// CORS answers preflight requests and decorates responses for cross origin callers.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
	slog.Debug("cors configured",
		slog.Any("origins", cfg.AllowedOrigins),
		slog.Any("methods", cfg.AllowedMethods),
		slog.Bool("credentials", cfg.AllowCredentials),
	)
	return c.Handler
}
