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
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"showcase/core/profile/domain"
	"showcase/modules/middleware/problem"
)

// Problem codes carried in the "code" member.
const (
	CodeValidationFailed = "validation_failed"
	CodeInvalidCursor    = "invalid_cursor"
	CodeInvalidReference = "invalid_reference"
	CodeInvalidData      = "invalid_data"
	CodeProfileNotFound  = "profile_not_found"
	CodeProfileExists    = "profile_exists"
	CodeStoreFailure     = "store_failure"
	CodeUnhandled        = "unhandled"
)

// ProblemFromDomainError maps a domain error to a problem document.
//
//	invalid data / reference / cursor -> 400
//	not found                         -> 404
//	duplicate login                   -> 409
//	store failure, anything else      -> 500
func ProblemFromDomainError(err error) *problem.Problem {
	var fields *domain.InvalidFieldsError
	switch {
	case errors.As(err, &fields):
		opts := make([]problem.Option, 0, len(fields.Fields)+1)
		opts = append(opts, problem.WithCode(CodeValidationFailed))
		for _, f := range fields.Fields {
			opts = append(opts, problem.WithInvalidParam(f.Name, f.Reason))
		}
		return problem.BadRequest("validation failed", opts...)
	case errors.Is(err, domain.ErrInvalidCursor):
		return problem.BadRequest(domain.ErrInvalidCursor.Error(),
			problem.WithCode(CodeInvalidCursor),
			problem.WithInvalidParam("after", "invalid or expired cursor"))
	case errors.Is(err, domain.ErrInvalidReference):
		return problem.BadRequest(domain.ErrInvalidReference.Error(), problem.WithCode(CodeInvalidReference))
	case errors.Is(err, domain.ErrInvalidData):
		return problem.BadRequest(domain.ErrInvalidData.Error(), problem.WithCode(CodeInvalidData))
	case errors.Is(err, domain.ErrProfileNotFound):
		return problem.NotFound(domain.ErrProfileNotFound.Error(), problem.WithCode(CodeProfileNotFound))
	case errors.Is(err, domain.ErrDuplicateProfile):
		prob := problem.Conflict(domain.ErrDuplicateProfile.Error(), problem.WithCode(CodeProfileExists))
		var ce *domain.ConstraintError
		if errors.As(err, &ce) && ce.Column != "" {
			problem.WithInvalidParam(ce.Column, "already exists")(prob)
		}
		return prob
	case errors.Is(err, domain.ErrStoreFailure):
		return problem.Internal(domain.ErrStoreFailure.Error(), problem.WithCode(CodeStoreFailure))
	default:
		return problem.Internal(domain.ErrUnhandled.Error(), problem.WithCode(CodeUnhandled))
	}
}

// writeProblem logs server-side failures and stamps the active trace id.
func writeProblem(ctx context.Context, w http.ResponseWriter, r *http.Request, prob *problem.Problem, err error) {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		problem.WithTraceID(sc.TraceID().String())(prob)
	}
	problem.WithInstance(r.URL.Path)(prob)

	if prob.Status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed",
			slog.String("method", r.Method),
			slog.String("url", r.URL.Path),
			slog.Any("error", err),
		)
	} else {
		slog.DebugContext(ctx, "domain error", slog.Any("error", err))
	}
	problem.Write(w, prob)
}
