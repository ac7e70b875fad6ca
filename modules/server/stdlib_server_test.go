package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingService struct{ tag string }

func (p pingService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func (p pingService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{tagger(p.tag)}
}

func tagger(tag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNew_MiddlewareOrder(t *testing.T) {
	s, err := New("127.0.0.1", 3000,
		WithGlobalMiddlewares(tagger("global-1"), tagger("global-2")),
		WithServices(pingService{tag: "service"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", s.Addr())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, []string{"global-1", "global-2", "service"}, rec.Header().Values("X-Chain"))
}

func TestNew_BadPort(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		_, err := New("", port)
		require.ErrorIs(t, err, ErrBadPort)
	}
	_, err := New("", 65535)
	require.NoError(t, err)
}

func TestNew_Timeouts(t *testing.T) {
	s, err := New("127.0.0.1", 3000, WithReadTimeout(5*time.Second), WithWriteTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.server.ReadTimeout)
	assert.Equal(t, 10*time.Second, s.server.WriteTimeout, "non-positive falls back to the default")
}

func TestRun_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s, err := New("127.0.0.1", port, WithShutdownTimeout(time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
