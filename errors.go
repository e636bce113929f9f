// Copyright 2015 go-swagger maintainers
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package refnorm

import "errors"

// Sentinel errors returned by Normalize and CheckRecursion. Callers should
// use errors.Is against these, since call sites wrap them with context via
// fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidIdentifier is returned when a URI used as a schema
	// identifier or $ref target cannot be parsed, or a remote document
	// cannot be obtained under the current RepositoryKind fallback rules.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidFragment is returned when a $ref's fragment does not
	// resolve to any node, neither as a JSON pointer nor as a
	// plain-name schema identifier, inside its target document.
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrInvalidReference is returned when a $ref's target document
	// cannot be obtained (load failure, not a DistributedSchema denial).
	ErrInvalidReference = errors.New("invalid reference")

	// ErrDistributedSchema is returned when a $ref needs a document
	// that has not already been loaded and AllowRemote is false.
	ErrDistributedSchema = errors.New("distributed schema: remote fetch disallowed")

	// ErrDraftValidation is returned when a document cannot be decoded
	// as JSON or its top level is not a JSON object. Documents are not
	// otherwise checked against the meta-schema of their draft.
	ErrDraftValidation = errors.New("draft validation failed")

	// ErrNotCached is returned by FetchCache.Get on a cache miss; the
	// normalizer's loader treats it as "go fetch this for real".
	ErrNotCached = errors.New("fetch cache: not cached")
)
