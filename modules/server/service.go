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

package server

import "net/http"

// RegistrableService is a self-contained slice of the API: it mounts its routes on
// the server mux and asks for the middlewares it needs around the whole mux.
type RegistrableService interface {
	Register(mux *http.ServeMux)
	Middlewares() []func(http.Handler) http.Handler
}
