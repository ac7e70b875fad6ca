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
	"showcase/modules/db"
)

// ProfileAPI implements the HTTP handlers for profile operations.
// It is the REST adapter of the hexagonal layout, translating HTTP requests
// into domain operations.
type ProfileAPI struct {
	app    *domain.Application
	health db.HealthManager
}

// NewProfileAPI creates a ProfileAPI. health may be nil, in which case /healthz
// always answers 204.
func NewProfileAPI(app *domain.Application, health db.HealthManager) *ProfileAPI {
	return &ProfileAPI{app: app, health: health}
}

// RegisterRoutes mounts the profile routes on mux.
func (p *ProfileAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", p.Healthz)
	mux.HandleFunc("POST /api/profile", p.CreateProfile)
	mux.HandleFunc("GET /api/profile/{login}", p.GetProfile)
	mux.HandleFunc("GET /api/profiles", p.ListProfiles)
}
