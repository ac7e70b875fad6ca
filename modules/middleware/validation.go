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

package middleware

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"

	"showcase/modules/middleware/problem"
)

// ValidationErrorHandler writes the response for a request rejected by the OpenAPI validator.
type ValidationErrorHandler func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, statusCode int)

// SpecLoadErrorHandler answers every request when the OpenAPI document could not be loaded.
type SpecLoadErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// specs are cached by path; one process serves one document per path
type specCacheKey struct {
	path string
}

type specCacheEntry struct {
	doc *openapi3.T
	err error
}

var (
	specCacheMu sync.Mutex
	specCache   = make(map[specCacheKey]specCacheEntry)
)

// LoadSpec reads, parses and validates the OpenAPI document at specPath once.
func LoadSpec(ctx context.Context, fsys fs.FS, specPath string) (*openapi3.T, error) {
	key := specCacheKey{path: specPath}

	specCacheMu.Lock()
	defer specCacheMu.Unlock()

	if entry, ok := specCache[key]; ok {
		return entry.doc, entry.err
	}

	doc, err := loadSpec(ctx, fsys, specPath)
	specCache[key] = specCacheEntry{doc: doc, err: err}
	return doc, err
}

func loadSpec(ctx context.Context, fsys fs.FS, specPath string) (*openapi3.T, error) {
	data, err := fs.ReadFile(fsys, specPath)
	if err != nil {
		return nil, err
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// OpenAPIValidation validates every request against the OpenAPI document before it
// reaches a handler. Requests for paths or methods the document does not declare are
// answered with 404/405; everything else the validator rejects is a 400.
func OpenAPIValidation(
	specFS fs.FS,
	specPath string,
	errorHandler ValidationErrorHandler,
	loadErrorHandler SpecLoadErrorHandler,
) func(http.Handler) http.Handler {
	spec, err := LoadSpec(context.Background(), specFS, specPath)
	if err != nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				loadErrorHandler(w, r, err)
			})
		}
	}

	opts := &nethttpmiddleware.Options{
		Options:               openapi3filter.Options{MultiError: true},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, _ nethttpmiddleware.ErrorHandlerOpts) {
			errorHandler(ctx, err, w, r, ValidationStatus(err))
		},
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}

// ValidationStatus maps a validator error to the HTTP status returned to the caller.
func ValidationStatus(err error) int {
	switch {
	case errors.Is(err, routers.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, routers.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusBadRequest
	}
}

// ProblemValidationErrorHandler renders validator failures as RFC 7807 problems with
// one invalidParams entry per offending field.
func ProblemValidationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, status int) {
	switch status {
	case http.StatusNotFound:
		problem.Write(w, problem.NotFound("resource not found"))
		return
	case http.StatusMethodNotAllowed:
		problem.Write(w, problem.MethodNotAllowed("method not allowed"))
		return
	}

	slog.DebugContext(ctx, "request validation failed",
		slog.String("method", r.Method),
		slog.String("url", r.URL.Path),
		slog.Any("error", err),
	)

	opts := make([]problem.Option, 0, 4)
	for _, ve := range ExtractValidationErrors(err) {
		opts = append(opts, problem.WithInvalidParam(ve.Field, ve.Reason))
	}
	problem.Write(w, problem.BadRequest("validation failed", opts...))
}

// ProblemSpecLoadErrorHandler answers 500 when the OpenAPI document is broken.
func ProblemSpecLoadErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "openapi document failed to load", slog.Any("error", err))
	problem.Write(w, problem.Internal("server error"))
}
