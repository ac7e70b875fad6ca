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
	"errors"
	"fmt"
	"log/slog"
)

// storeErrors are passed through to callers unchanged; anything else becomes ErrUnhandled.
var storeErrors = []error{
	ErrDuplicateProfile,
	ErrInvalidReference,
	ErrProfileNotFound,
	ErrInvalidData,
	ErrStoreFailure,
}

// CreateProfile validates params, assigns a UUIDv7 and inserts the profile.
// Invalid input never reaches the store.
func (app *Application) CreateProfile(ctx context.Context, params CreateProfileParams) (*GitHubProfile, error) {
	if err := ValidateCreateProfile(&params); err != nil {
		slog.DebugContext(ctx, "rejected profile", slog.String("login", params.Login), slog.Any("error", err))
		return nil, err
	}

	id, err := app.newID()
	if err != nil {
		slog.ErrorContext(ctx, "id generation failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrUnhandled, err)
	}
	params.ID = id

	created, err := app.writer.CreateProfile(ctx, &params)
	if err == nil {
		slog.InfoContext(ctx, "created profile",
			slog.String("id", created.ID.String()),
			slog.String("login", created.Login),
		)
		return created, nil
	}

	for _, known := range storeErrors {
		if errors.Is(err, known) {
			if known == ErrDuplicateProfile {
				slog.WarnContext(ctx, "duplicate profile", slog.String("login", params.Login))
			} else {
				slog.ErrorContext(ctx, "profile store rejected insert", slog.Any("error", err))
			}
			return nil, err
		}
	}

	slog.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
	return nil, fmt.Errorf("%w: %w", ErrUnhandled, err)
}
