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

package etag

import (
	"errors"
	"strings"
)

const prefix = "v:"

var ErrInvalidETag = errors.New("invalid etag format")

type ETaggable interface {
	V() string
}

// ETag renders the strong entity tag of obj as a quoted string, e.g. "v:3".
// Matches also accepts the unquoted and weak forms on the way back.
func ETag(obj ETaggable) string {
	return `"` + prefix + obj.V() + `"`
}

// ParseETag returns the version part of a tag produced by ETag.
func ParseETag(etag string) (string, error) {
	etag = strings.TrimPrefix(strings.TrimSpace(etag), "W/")
	etag = strings.Trim(etag, `"`)
	if !strings.HasPrefix(etag, prefix) || len(etag) == len(prefix) {
		return "", ErrInvalidETag
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// Matches reports whether an If-None-Match header value names obj's current
// version. "*" matches anything.
func Matches(ifNoneMatch string, obj ETaggable) bool {
	if ifNoneMatch == "" {
		return false
	}
	for candidate := range strings.SplitSeq(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if v, err := ParseETag(candidate); err == nil && v == obj.V() {
			return true
		}
	}
	return false
}
