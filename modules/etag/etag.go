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

// Package etag builds weak-free entity tags for immutable resources.
package etag

import (
	"fmt"
	"strings"
)

type ETaggable interface {
	V() string
}

// ETag returns the unquoted tag for obj.
//
// For HTTP headers, remember that the actual header value is quoted, see Header.
func ETag(obj ETaggable) string {
	return "v:" + obj.V()
}

// Header returns the quoted tag suitable for the ETag response header.
func Header(obj ETaggable) string {
	return fmt.Sprintf("%q", ETag(obj))
}

func ParseETag(etag string) (string, error) {
	const prefix = "v:"
	etag = strings.TrimPrefix(strings.TrimSpace(etag), "W/")
	etag = strings.Trim(etag, `"`)
	if !strings.HasPrefix(etag, prefix) {
		return "", fmt.Errorf("invalid etag format")
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// Matches reports whether an If-None-Match header value selects obj.
// "*" matches anything; a list is compared member by member.
func Matches(ifNoneMatch string, obj ETaggable) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := obj.V()
	for candidate := range strings.SplitSeq(ifNoneMatch, ",") {
		if v, err := ParseETag(candidate); err == nil && v == want {
			return true
		}
	}
	return false
}
