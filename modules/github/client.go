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

// Package github looks up public user profiles on the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.github.com"
	APIVersion     = "2022-11-28"
	mediaType      = "application/vnd.github+json"

	// maxErrorBody bounds how much of a failed response is kept on APIError.
	maxErrorBody = 4 << 10
)

var ErrUserNotFound = errors.New("github user not found")

// APIError is any non-200, non-404 answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: status %d: %s", e.StatusCode, e.Body)
}

// User is the subset of GET /users/{username} the showcase displays.
type User struct {
	Login       string  `json:"login"`
	Name        *string `json:"name"`
	AvatarURL   string  `json:"avatar_url"`
	HTMLURL     string  `json:"html_url"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Followers   int64   `json:"followers"`
	Following   int64   `json:"following"`
	PublicRepos int64   `json:"public_repos"`
}

type (
	Client struct {
		baseURL *url.URL
		http    *http.Client
		limiter *rate.Limiter
	}

	Option func(*clientOptions)

	clientOptions struct {
		baseURL    string
		token      string
		httpClient *http.Client
		limiter    *rate.Limiter
		timeout    time.Duration
	}
)

func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithToken authenticates requests with a personal access token.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithRateLimit throttles outbound calls to perMinute requests, with a burst of one.
// Zero or negative disables throttling.
func WithRateLimit(perMinute int) Option {
	return func(o *clientOptions) {
		if perMinute <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

func NewClient(opts ...Option) (*Client, error) {
	o := clientOptions{
		baseURL: DefaultBaseURL,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := url.Parse(strings.TrimRight(o.baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("github base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("github base url: unsupported scheme %q", base.Scheme)
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	if o.token != "" {
		// oauth2.NewClient wraps the transport of the client found in ctx.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token}))
		authed.Timeout = hc.Timeout
		hc = authed
	}

	return &Client{baseURL: base, http: hc, limiter: o.limiter}, nil
}

// GetUser fetches GET /users/{username}. It returns ErrUserNotFound on 404 and
// *APIError on any other non-200 status.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("github rate limiter: %w", err)
		}
	}

	endpoint := c.baseURL.String() + "/users/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github request: %w", err)
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("X-GitHub-Api-Version", APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github get user %q: %w", username, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUserNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.DebugContext(ctx, "github api error",
			slog.Int("status", resp.StatusCode),
			slog.String("username", username),
		)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("github decode user: %w", err)
	}
	return &u, nil
}
