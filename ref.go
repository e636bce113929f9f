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

import (
	"github.com/go-openapi/jsonreference"
)

// Ref represents a $ref value, potentially resolved against a scope.
// It wraps jsonreference.Ref rather than hand-rolling RFC 3986
// resolution, IsRoot/HasFragmentOnly classification, and JSON-pointer
// splitting.
type Ref struct {
	jsonreference.Ref
}

// RemoteURI returns the document identifier part of the ref, with any
// fragment stripped. An empty result means the ref has no document part:
// it points into whatever document it is resolved against.
func (r *Ref) RemoteURI() string {
	if r.String() == "" {
		return ""
	}
	u := *r.GetURL()
	u.Fragment = ""
	return u.String()
}

// Inherits resolves child against r as a base, the way a $ref nested
// under a scope inherits that scope's identifier.
func (r *Ref) Inherits(child Ref) (*Ref, error) {
	ref, err := r.Ref.Inherits(child.Ref)
	if err != nil {
		return nil, err
	}
	return &Ref{Ref: *ref}, nil
}

// NewRef parses refURI into a Ref, failing if it is not a valid URI
// reference.
func NewRef(refURI string) (Ref, error) {
	ref, err := jsonreference.New(refURI)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Ref: ref}, nil
}

// MustCreateRef is like NewRef but panics on an invalid URI; it exists
// for constructing refs from string literals known to be valid (fixture
// setup in tests, synthesized local pointers).
func MustCreateRef(refURI string) Ref {
	return Ref{Ref: jsonreference.MustCreateRef(refURI)}
}
