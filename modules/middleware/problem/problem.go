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

// Package problem renders RFC 7807 problem details documents.
package problem

import (
	"encoding/json"
	"net/http"
)

const ContentType = "application/problem+json"

// Problem is an RFC7807 Problem Details document with optional extensions.
type Problem struct {
	Code          *string         `json:"code,omitempty"`
	Detail        *string         `json:"detail,omitempty"`
	Instance      *string         `json:"instance,omitempty"`
	InvalidParams *[]InvalidParam `json:"invalidParams,omitempty"`
	Status        int             `json:"status"`
	Title         string          `json:"title"`
	TraceID       *string         `json:"traceId,omitempty"`
	Type          *string         `json:"type,omitempty"`

	// Extensions holds additional non-standard fields.
	Extensions map[string]any `json:"-"`
}

type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Option func(*Problem)

func New(opts ...Option) *Problem {
	p := &Problem{
		Type:   strPtr("about:blank"),
		Title:  http.StatusText(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
		Detail: strPtr("unhandled error"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.Type == nil {
		p.Type = strPtr("about:blank")
	}
	if p.Title == "" {
		if t := http.StatusText(p.Status); t != "" {
			p.Title = t
		} else {
			p.Title = "Unknown Error"
		}
	}
	return p
}

func Write(w http.ResponseWriter, p *Problem) {
	if p == nil {
		p = Internal("server error")
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// DetailOr returns the problem detail, or fallback when there is none.
func (p *Problem) DetailOr(fallback string) string {
	if p == nil || p.Detail == nil || *p.Detail == "" {
		return fallback
	}
	return *p.Detail
}

func WithStatus(status int) Option {
	return func(p *Problem) { p.Status = status }
}

func WithTitle(title string) Option {
	return func(p *Problem) { p.Title = title }
}

func WithDetail(detail string) Option {
	return func(p *Problem) { p.Detail = strPtr(detail) }
}

func WithCode(code string) Option {
	return func(p *Problem) { p.Code = strPtr(code) }
}

func WithInstance(instance string) Option {
	return func(p *Problem) { p.Instance = strPtr(instance) }
}

func WithTraceID(traceID string) Option {
	return func(p *Problem) { p.TraceID = strPtr(traceID) }
}

func WithInvalidParam(name, reason string) Option {
	return func(p *Problem) {
		if p.InvalidParams == nil {
			s := []InvalidParam{{Name: name, Reason: reason}}
			p.InvalidParams = &s
			return
		}
		s := append(*p.InvalidParams, InvalidParam{Name: name, Reason: reason})
		p.InvalidParams = &s
	}
}

func WithExtension(key string, value any) Option {
	return func(p *Problem) {
		if p.Extensions == nil {
			p.Extensions = map[string]any{}
		}
		p.Extensions[key] = value
	}
}

func newWithStatus(status int, detail string, opts []Option) *Problem {
	base := []Option{
		WithTitle(http.StatusText(status)),
		WithStatus(status),
		WithDetail(detail),
	}
	return New(append(base, opts...)...)
}

func BadRequest(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusBadRequest, detail, opts)
}

func NotFound(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusNotFound, detail, opts)
}

func MethodNotAllowed(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusMethodNotAllowed, detail, opts)
}

func Conflict(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusConflict, detail, opts)
}

func TooManyRequests(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusTooManyRequests, detail, opts)
}

func Internal(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusInternalServerError, detail, opts)
}

func ServiceUnavailable(detail string, opts ...Option) *Problem {
	return newWithStatus(http.StatusServiceUnavailable, detail, opts)
}

func strPtr(s string) *string { return &s }

// MarshalJSON merges Extensions into the base Problem object.
// Standard members win over extensions with the same name.
func (p Problem) MarshalJSON() ([]byte, error) {
	// alias drops the method set, otherwise json.Marshal recurses back here
	type alias Problem
	base, err := json.Marshal(alias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extensions) == 0 {
		return base, nil
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range p.Extensions {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
