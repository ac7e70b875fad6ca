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
	"errors"
	"strings"
)

var (
	ErrDuplicateProfile = errors.New("profile with this login already exists")
	ErrInvalidReference = errors.New("invalid relation reference")
	ErrInvalidData      = errors.New("invalid data provided for profile operations")
	ErrInvalidCursor    = errors.New("invalid or expired cursor")
	ErrProfileNotFound  = errors.New("record not found")
	ErrStoreFailure     = errors.New("database operation failed")
	ErrUnhandled        = errors.New("unexpected error occurred")
)

// ConstraintError is returned by stores when the database rejects a write.
// Kind is one of the sentinel errors above so callers can keep using errors.Is.
type ConstraintError struct {
	Kind       error
	Constraint string
	Column     string
	Cause      error
}

func (e *ConstraintError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Constraint != "" {
		b.WriteString(" (constraint ")
		b.WriteString(e.Constraint)
		b.WriteString(")")
	}
	return b.String()
}

func (e *ConstraintError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// FieldError is one rejected input field.
type FieldError struct {
	Name   string
	Reason string
}

// InvalidFieldsError lists every field that failed validation. It matches ErrInvalidData.
type InvalidFieldsError struct {
	Fields []FieldError
}

func (e *InvalidFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

func (e *InvalidFieldsError) Unwrap() error {
	return ErrInvalidData
}
