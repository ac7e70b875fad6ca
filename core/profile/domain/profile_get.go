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
	"strings"
)

func (app *Application) GetProfileByLogin(ctx context.Context, login string) (*GitHubProfile, error) {
	if strings.TrimSpace(login) == "" {
		return nil, &InvalidFieldsError{Fields: []FieldError{{Name: "login", Reason: "must not be empty"}}}
	}
	prof, err := app.reader.GetProfileByLogin(ctx, login)
	if err == nil {
		return prof, nil
	}
	if errors.Is(err, ErrProfileNotFound) {
		return nil, ErrProfileNotFound
	}
	slog.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
	return nil, fmt.Errorf("%w: %w", ErrUnhandled, err)
}
