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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

const MAX_TCP_PORT = 1<<16 - 1 // A TCP header uses a 16-bit field for port numbers

var ErrBadPort = errors.New("server: port must be within 1..65535")

type (
	Server struct {
		server *http.Server
		mux    *http.ServeMux
		host   string
		port   uint16

		shutdownTimeout time.Duration

		// global middleware chain applied around the mux
		middlewares []func(http.Handler) http.Handler

		// registrable services that mount routes and provide their own middlewares
		services []RegistrableService
	}

	ServerOptions func(*Server)
)

func WithWriteTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t <= 0 {
			t = 10 * time.Second
		}
		s.server.WriteTimeout = t
	}
}

func WithReadTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t <= 0 {
			t = 10 * time.Second
		}
		s.server.ReadTimeout = t
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests on shutdown.
func WithShutdownTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t > 0 {
			s.shutdownTimeout = t
		}
	}
}

// WithServices registers a collection of self-contained, registrable services.
func WithServices(svcs ...RegistrableService) ServerOptions {
	return func(s *Server) {
		s.services = append(s.services, svcs...)
	}
}

// WithGlobalMiddlewares registers middlewares wrapping the entire server mux.
// They run in the order provided, before any service middleware.
func WithGlobalMiddlewares(mw ...func(http.Handler) http.Handler) ServerOptions {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// Example usage:
//
//	server, _ := New("0.0.0.0", 3000, WithWriteTimeout(10*time.Second))
func New(host string, port int, opts ...ServerOptions) (*Server, error) {
	if len(host) == 0 {
		slog.Warn("empty host, binding to all interfaces")
		host = "0.0.0.0"
	}
	if port <= 0 || port > MAX_TCP_PORT {
		return nil, fmt.Errorf("%w: got %d", ErrBadPort, port)
	}
	s := &Server{
		host:            host,
		port:            uint16(port),
		shutdownTimeout: 10 * time.Second,
		mux:             http.NewServeMux(),
		server: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	for _, svc := range s.services {
		svc.Register(s.mux)
		s.middlewares = append(s.middlewares, svc.Middlewares()...)
		slog.Info("registered service", slog.String("type", fmt.Sprintf("%T", svc)))
	}

	s.server.Handler = s.buildHandler()
	return s, nil
}

// buildHandler wraps the mux so that middlewares[0] is the outermost layer.
func (s *Server) buildHandler() http.Handler {
	handler := http.Handler(s.mux)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	return handler
}

// Handler exposes the composed chain, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is cancelled or the listener fails, then drains in-flight
// requests for at most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "started server", slog.String("host", s.host), slog.Any("port", s.port))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr == nil {
			return nil
		}
		slog.ErrorContext(ctx, "server error", slog.Any("error", serveErr))
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down...")
	// ctx may already be cancelled; the drain gets its own deadline
	dCtx, dCancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer dCancel()

	return errors.Join(serveErr, s.server.Shutdown(dCtx))
}
