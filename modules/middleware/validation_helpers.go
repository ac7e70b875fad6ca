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
	"errors"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
)

// ValidationError is one offending field and why it was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

// ExtractValidationErrors flattens a validator error into per-field reasons.
// Reasons never echo the submitted value back.
func ExtractValidationErrors(err error) []ValidationError {
	if multi, ok := err.(openapi3.MultiError); ok {
		var out []ValidationError
		for _, item := range multi {
			out = append(out, ExtractValidationErrors(item)...)
		}
		return out
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		// body errors nest a MultiError when MultiError validation is on
		var inner openapi3.MultiError
		if errors.As(reqErr.Err, &inner) {
			out := ExtractValidationErrors(inner)
			if reqErr.Parameter != nil {
				for i := range out {
					out[i].Field = reqErr.Parameter.Name
				}
			}
			return out
		}

		var se *openapi3.SchemaError
		if errors.As(reqErr.Err, &se) {
			if reqErr.Parameter != nil {
				return []ValidationError{{Field: reqErr.Parameter.Name, Reason: se.Reason}}
			}
			return []ValidationError{schemaError(se)}
		}

		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		return []ValidationError{{Field: field, Reason: SafeReason(reqErr.Reason)}}
	}

	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		return []ValidationError{schemaError(se)}
	}

	var secErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &secErr) {
		return []ValidationError{{Field: "authorization", Reason: "missing or invalid credentials"}}
	}

	return []ValidationError{{Field: "request", Reason: "invalid value"}}
}

func schemaError(se *openapi3.SchemaError) ValidationError {
	field := fieldFromPointer(se.JSONPointer())
	// "required" and unknown-member failures point at the object, not the field
	switch {
	case se.SchemaField == "required":
		if name, ok := quotedName(se.Reason); ok {
			field = name
		}
	case se.SchemaField == "additionalProperties", strings.HasSuffix(se.Reason, "is unsupported"):
		if name, ok := quotedName(se.Reason); ok {
			return ValidationError{Field: name, Reason: "property is not allowed"}
		}
	}
	return ValidationError{Field: field, Reason: se.Reason}
}

func fieldFromPointer(ptr []string) string {
	if len(ptr) == 0 || ptr[0] == "" {
		return "body"
	}
	return ptr[0]
}

// quotedName returns the first double quoted token of a kin-openapi reason,
// e.g. `property "login" is missing`.
func quotedName(reason string) (string, bool) {
	_, rest, ok := strings.Cut(reason, `"`)
	if !ok {
		return "", false
	}
	name, _, ok := strings.Cut(rest, `"`)
	return name, ok && name != ""
}

// SafeReason reduces verbose reasons so input data is not reflected to the client.
func SafeReason(reason string) string {
	if reason == "" {
		return "invalid value"
	}
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "doesn't match schema"):
		return "doesn't match schema"
	case strings.Contains(lower, "must be one of"):
		return reason
	case strings.Contains(lower, "value is required but missing"):
		return "value is required but missing"
	case strings.Contains(lower, "failed to decode"):
		return "malformed request body"
	default:
		return "invalid value"
	}
}
