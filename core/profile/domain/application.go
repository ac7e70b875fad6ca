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
	"github.com/gofrs/uuid/v5"

	"showcase/modules/clock"
)

type (
	Application struct {
		reader ProfileReadStore
		writer ProfileWriteStore
		signer CursorSigner

		clock clock.Clock
		newID func() (uuid.UUID, error)
	}

	AppOption func(*Application)
)

func WithClock(c clock.Clock) AppOption {
	return func(a *Application) { a.clock = clock.OrReal(c) }
}

// WithIDGenerator replaces the UUIDv7 generator, e.g. for deterministic tests.
func WithIDGenerator(fn func() (uuid.UUID, error)) AppOption {
	return func(a *Application) { a.newID = fn }
}

func NewApp(reader ProfileReadStore, writer ProfileWriteStore, signer CursorSigner, opts ...AppOption) *Application {
	app := &Application{
		reader: reader,
		writer: writer,
		signer: signer,
		clock:  clock.RealClock{},
		newID:  uuid.NewV7,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
