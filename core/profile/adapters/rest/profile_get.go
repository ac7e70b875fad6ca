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
	"net/http"

	"showcase/core/profile/domain"
	"showcase/modules/api/serde"
	"showcase/modules/etag"
)

// GetProfile returns a saved profile by login.
// Returns 200 with an ETag header, 304 when If-None-Match selects it, 404 if absent.
func (p *ProfileAPI) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prof, err := p.app.GetProfileByLogin(ctx, r.PathValue("login"))
	if err != nil {
		writeProblem(ctx, w, r, ProblemFromDomainError(err), err)
		return
	}

	resp := mapProfile([]domain.GitHubProfile{*prof})[0]
	w.Header().Set("ETag", etag.Header(resp))
	if etag.Matches(r.Header.Get("If-None-Match"), resp) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	serde.WriteJSON(w, http.StatusOK, ProfileEnvelope{Data: resp})
}
