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
	"context"
	"net/http"
	"time"

	"showcase/modules/middleware/problem"
)

const healthTimeout = 2 * time.Second

// Healthz returns 204 when the primary database answers, 503 otherwise.
func (p *ProfileAPI) Healthz(w http.ResponseWriter, r *http.Request) {
	if p.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := p.health.HealthCheck(ctx); err != nil {
			writeProblem(ctx, w, r, problem.ServiceUnavailable("database unavailable"), err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
