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
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	maxLoginLen     = 100
	maxNameLen      = 255
	maxBioLen       = 2000
	maxAvatarURLLen = 2048
)

// ValidateCreateProfile checks every field and reports all violations together.
func ValidateCreateProfile(p *CreateProfileParams) error {
	if p == nil {
		return &InvalidFieldsError{Fields: []FieldError{{Name: "body", Reason: "value is required but missing"}}}
	}

	var fields []FieldError
	add := func(name, reason string) {
		fields = append(fields, FieldError{Name: name, Reason: reason})
	}

	switch {
	case strings.TrimSpace(p.Login) == "":
		add("login", "must not be empty")
	case utf8.RuneCountInString(p.Login) > maxLoginLen:
		add("login", "must be at most 100 characters")
	}

	if p.Name != nil && utf8.RuneCountInString(*p.Name) > maxNameLen {
		add("name", "must be at most 255 characters")
	}
	if p.Bio != nil && utf8.RuneCountInString(*p.Bio) > maxBioLen {
		add("bio", "must be at most 2000 characters")
	}

	if reason, ok := checkAvatarURL(p.AvatarURL); !ok {
		add("avatar_url", reason)
	}

	for _, c := range []struct {
		name  string
		value int64
	}{
		{"followers", p.Followers},
		{"following", p.Following},
		{"public_repos", p.PublicRepos},
	} {
		if c.value < 0 {
			add(c.name, "must be greater than or equal to 0")
		}
	}

	if len(fields) > 0 {
		return &InvalidFieldsError{Fields: fields}
	}
	return nil
}

func checkAvatarURL(raw string) (string, bool) {
	if raw == "" {
		return "must not be empty", false
	}
	if len(raw) > maxAvatarURLLen {
		return "must be at most 2048 characters", false
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "must be an absolute URL", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "must use http or https", false
	}
	return "", true
}
