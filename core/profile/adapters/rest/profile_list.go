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
	"strconv"

	"showcase/modules/api/serde"
	"showcase/modules/middleware/problem"
)

// ListProfiles returns saved profiles newest first with keyset pagination.
// Query params: limit (1..100, default 20) and after (opaque cursor).
func (p *ProfileAPI) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeProblem(ctx, w, r, problem.BadRequest("validation failed",
				problem.WithInvalidParam("limit", "must be a positive integer")), err)
			return
		}
		limit = n
	}

	page, err := p.app.ListProfiles(ctx, q.Get("after"), limit)
	if err != nil {
		writeProblem(ctx, w, r, ProblemFromDomainError(err), err)
		return
	}

	resp := ProfileList{
		Data: mapProfile(page.Profiles),
		Meta: ListMeta{Limit: page.Limit},
	}
	if page.NextCursor != "" {
		resp.Meta.NextCursor = &page.NextCursor
	}
	serde.WriteJSON(w, http.StatusOK, resp)
}
