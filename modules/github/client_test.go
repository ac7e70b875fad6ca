package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetUser_DecodesProfile(t *testing.T) {
	srv := newGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"login": "octocat",
			"name": null,
			"avatar_url": "https://avatars.githubusercontent.com/u/583231?v=4",
			"html_url": "https://github.com/octocat",
			"location": "San Francisco",
			"bio": null,
			"followers": 3938,
			"following": 9,
			"public_repos": 8,
			"site_admin": false
		}`))
	})

	c, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	u, err := c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)
	assert.Nil(t, u.Name)
	require.NotNil(t, u.Location)
	assert.Equal(t, "San Francisco", *u.Location)
	assert.Equal(t, int64(3938), u.Followers)
	assert.Equal(t, int64(8), u.PublicRepos)
}

func TestGetUser_NotFound(t *testing.T) {
	srv := newGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	c, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.GetUser(context.Background(), "ghost-user-xyz")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUser_APIError(t *testing.T) {
	srv := newGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	})
	c, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.GetUser(context.Background(), "octocat")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limit")
}

func TestGetUser_EscapesUsername(t *testing.T) {
	srv := newGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/a%2Fb", r.URL.EscapedPath())
		http.NotFound(w, r)
	})
	c, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.GetUser(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUser_SendsBearerToken(t *testing.T) {
	srv := newGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cr3t", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	})
	c, err := NewClient(WithBaseURL(srv.URL), WithToken("s3cr3t"))
	require.NoError(t, err)

	_, err = c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
}

func TestGetUser_RateLimiterHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := newGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	})
	c, err := NewClient(WithBaseURL(srv.URL), WithRateLimit(1))
	require.NoError(t, err)

	_, err = c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.GetUser(ctx, "octocat")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUserNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(WithBaseURL("ftp://example.com"))
	assert.Error(t, err)
}

func TestGetUser_TLSWithInjectedClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cr3t", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"login":"octocat","avatar_url":"https://x.test/a.png"}`))
	}))
	t.Cleanup(srv.Close)

	// the default client does not trust the test certificate
	plain, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = plain.GetUser(context.Background(), "octocat")
	require.Error(t, err)

	c, err := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithToken("s3cr3t"))
	require.NoError(t, err)
	u, err := c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)
}
