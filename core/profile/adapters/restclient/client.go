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

// Package restclient calls the profile backend over HTTP.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"showcase/core/profile/adapters/rest"
	"showcase/modules/middleware/problem"
)

const maxProblemBody = 64 << 10

// SaveRequest is the whitelisted body accepted by POST /api/profile.
type SaveRequest struct {
	Login       string  `json:"login"`
	Name        *string `json:"name"`
	AvatarURL   string  `json:"avatar_url"`
	Bio         *string `json:"bio"`
	Followers   int64   `json:"followers"`
	Following   int64   `json:"following"`
	PublicRepos int64   `json:"public_repos"`
}

// ProblemError is a non-2xx answer from the backend.
type ProblemError struct {
	StatusCode int
	Problem    *problem.Problem
}

func (e *ProblemError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Detail())
}

// Detail is the problem detail, or a generic message when the backend sent none.
func (e *ProblemError) Detail() string {
	return e.Problem.DetailOr("Failed to save")
}

func (e *ProblemError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the backend at baseURL, e.g. http://localhost:3000.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SaveProfile posts p and returns the persisted row. Failures other than transport
// errors are returned as *ProblemError.
func (c *Client) SaveProfile(ctx context.Context, p SaveRequest) (*rest.Profile, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/profile", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("save profile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, "+problem.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, decodeProblem(resp)
	}

	var env rest.ProfileEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode saved profile: %w", err)
	}
	return &env.Data, nil
}

func decodeProblem(resp *http.Response) error {
	perr := &ProblemError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProblemBody))
	if err != nil {
		return errors.Join(perr, err)
	}
	var p problem.Problem
	if json.Unmarshal(raw, &p) == nil {
		perr.Problem = &p
	}
	return perr
}
