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

package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ListProfiles returns one page of profiles, newest first. rawCursor is the
// NextCursor of the previous page, or empty for the first page. limit <= 0 means
// DefaultPageSize; larger values are capped at MaxPageSize.
func (app *Application) ListProfiles(ctx context.Context, rawCursor string, limit int) (*ProfilePage, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	var (
		profiles []GitHubProfile
		err      error
	)
	// one extra row tells us whether another page exists
	if rawCursor == "" {
		profiles, err = app.reader.ListProfilesFirstPage(ctx, limit+1)
	} else {
		tok, derr := app.decodeCursorToken(rawCursor)
		if derr != nil {
			slog.DebugContext(ctx, "invalid cursor", slog.Any("error", derr))
			return nil, ErrInvalidCursor
		}
		profiles, err = app.reader.ListProfilesAfter(ctx, tok.Pivot.CreatedAt, tok.Pivot.ID, limit+1)
	}
	if err != nil {
		slog.ErrorContext(ctx, "persistence error", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrUnhandled, err)
	}

	page := &ProfilePage{Profiles: profiles, Limit: limit}
	if len(profiles) > limit {
		page.Profiles = profiles[:limit]
		next, err := app.cursorAfter(page.Profiles[limit-1])
		if err != nil {
			slog.ErrorContext(ctx, "cursor signing failed", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", ErrUnhandled, err)
		}
		page.NextCursor = next
	}
	return page, nil
}

// --- cursor helpers (opaque token: base64url(JSON) . base64url(HMAC)) ---

func (app *Application) cursorAfter(p GitHubProfile) (string, error) {
	tok := CursorPaginationToken{TTL: app.clock.Now().Add(CursorTTL)}
	tok.Pivot.CreatedAt = p.CreatedAt
	tok.Pivot.ID = p.ID

	b, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return app.signer.Sign(b)
}

func (app *Application) decodeCursorToken(s string) (*CursorPaginationToken, error) {
	raw, err := app.signer.Verify(s)
	if err != nil {
		return nil, err
	}
	var tok CursorPaginationToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, err
	}
	if tok.TTL.IsZero() || !app.clock.Now().Before(tok.TTL) {
		return nil, fmt.Errorf("cursor expired at %s", tok.TTL)
	}
	if tok.Pivot.ID.IsNil() {
		return nil, errors.New("cursor without pivot")
	}
	return &tok, nil
}
