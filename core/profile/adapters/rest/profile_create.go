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

package rest

import (
	"errors"
	"net/http"
	"net/url"

	"showcase/core/profile/domain"
	"showcase/modules/api/serde"
	"showcase/modules/middleware/problem"
)

// CreateProfile persists a fetched GitHub profile.
// Returns 201 with a Location header on success, 400 for invalid input and 409
// when the login is already saved.
func (p *ProfileAPI) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body CreateProfileRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		writeProblem(ctx, w, r, problem.BadRequest("invalid request body",
			problem.WithInvalidParam("body", "must be a single JSON object with known fields")), err)
		return
	}
	if missing := body.missingFields(); len(missing) > 0 {
		err := &domain.InvalidFieldsError{Fields: missing}
		writeProblem(ctx, w, r, ProblemFromDomainError(err), err)
		return
	}

	profile, err := p.app.CreateProfile(ctx, body.toParams())
	if err != nil {
		prob := ProblemFromDomainError(err)
		// a write that returns no row is a rejected payload, not a missing resource
		if errors.Is(err, domain.ErrProfileNotFound) {
			prob = problem.BadRequest(domain.ErrProfileNotFound.Error(), problem.WithCode(CodeProfileNotFound))
		}
		writeProblem(ctx, w, r, prob, err)
		return
	}

	w.Header().Set("Location", "/api/profile/"+url.PathEscape(profile.Login))
	serde.WriteJSON(w, http.StatusCreated, ProfileEnvelope{Data: mapProfile([]domain.GitHubProfile{*profile})[0]})
}
