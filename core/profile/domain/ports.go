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
	"time"

	"github.com/gofrs/uuid/v5"
)

// ProfileReadStore is the port for read operations on profiles. Implementations
// may route to read replicas; nothing here modifies data.
type ProfileReadStore interface {
	// GetProfileByLogin returns ErrProfileNotFound when no profile has login.
	GetProfileByLogin(ctx context.Context, login string) (*GitHubProfile, error)

	// ListProfilesFirstPage returns the newest profiles ordered by (created_at DESC, id DESC).
	ListProfilesFirstPage(ctx context.Context, limit int) ([]GitHubProfile, error)

	// ListProfilesAfter returns the profiles strictly older than the pivot in
	// (created_at DESC, id DESC) order.
	ListProfilesAfter(ctx context.Context, pivotCreatedAt time.Time, pivotID uuid.UUID, limit int) ([]GitHubProfile, error)
}

// ProfileWriteStore is the port for writes; implementations are bound to the primary.
type ProfileWriteStore interface {
	// CreateProfile inserts one row and returns it as stored, created_at included.
	//
	// Errors wrap, via ConstraintError or %w:
	//   - ErrDuplicateProfile when the login is taken
	//   - ErrInvalidReference, ErrInvalidData, ErrProfileNotFound for other rejected writes
	//   - ErrStoreFailure for any other database error
	CreateProfile(ctx context.Context, params *CreateProfileParams) (*GitHubProfile, error)
}

// CursorSigner is the outbound port for signing and verifying cursor tokens.
type CursorSigner interface {
	// Sign returns signed cursor token = base64url(payload) + "." + base64url(algo(payloadB64))
	Sign(payload []byte) (string, error)
	// Verify returns the original payload after validating signature
	Verify(token string) ([]byte, error)
}
