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

// Draft distinguishes the two identifier-keyword conventions the
// normalizer has to support: draft-04's "id" and draft-06/07's "$id".
type Draft int

const (
	// Draft4 documents use "id" to introduce a new resolution scope.
	Draft4 Draft = iota
	// DraftHigher covers draft-06 and draft-07, which use "$id".
	DraftHigher
)

// String implements fmt.Stringer.
func (d Draft) String() string {
	if d == Draft4 {
		return "draft-04"
	}
	return "draft-06/07"
}

// IDKeyword returns the identifier keyword this draft recognizes.
func (d Draft) IDKeyword() string {
	if d == Draft4 {
		return keyIDLegacy
	}
	return keyID
}

// Keywords with special meaning to the traversal, independent of draft.
const (
	keyRef         = "$ref"
	keySchema      = "$schema"
	keyID          = "$id"
	keyIDLegacy    = "id"
	keyEnum        = "enum"
	keyConst       = "const"
	keyDefinitions = "definitions"
)

// draft04SchemaURI lets detectDraft recognize an explicit $schema
// declaration: a $schema starting with it maps to Draft4, any other
// non-empty $schema string maps to DraftHigher, and an absent, empty or
// non-string $schema falls back to structural inference.
const (
	draft04SchemaURI = "http://json-schema.org/draft-04/schema"
)

// detectDraft determines the draft of a schema document. It first
// consults a top-level $schema string; failing that, it infers the draft
// by scanning for any "$id" keyword anywhere in the document (draft-04
// schemas never use "$id"). A document with neither is treated as
// draft-04, the most permissive assumption for an untyped "id".
func detectDraft(doc map[string]interface{}) Draft {
	if schemaVal, ok := doc[keySchema]; ok {
		if s, ok := schemaVal.(string); ok {
			switch {
			case containsDraft04(s):
				return Draft4
			case s != "":
				return DraftHigher
			}
		}
	}

	if containsIDHigher(doc) {
		return DraftHigher
	}
	return Draft4
}

func containsDraft04(schemaURI string) bool {
	return len(schemaURI) >= len(draft04SchemaURI) && schemaURI[:len(draft04SchemaURI)] == draft04SchemaURI
}

// containsIDHigher walks the document (skipping enum/const data) looking
// for any "$id" keyword, which only exists in draft-06+.
func containsIDHigher(node interface{}) bool {
	switch m := node.(type) {
	case map[string]interface{}:
		if _, ok := m[keyID]; ok {
			return true
		}
		for k, v := range m {
			if k == keyEnum || k == keyConst {
				continue
			}
			if containsIDHigher(v) {
				return true
			}
		}
	case []interface{}:
		for _, v := range m {
			if containsIDHigher(v) {
				return true
			}
		}
	}
	return false
}

// The recursion checker (recursion.go) treats allOf/oneOf/anyOf/not/
// properties/patternProperties/additionalProperties/items/
// additionalItems/contains/dependencies as its composition edges, each
// with its own guard rule (see descend and descendItems). "not" is
// treated as a non-guard, the conservative choice, since it never
// widens what counts as GUARDED. "dependencies" (schema form) counts
// as a guard too, justified in DESIGN.md: a schema dependency only
// applies when its property is present, the same "admits omission"
// criterion that makes an optional property a guard. "definitions" is
// deliberately not a composition edge: it is a named bag of schemas,
// not part of a schema's validation composition, so the checker never
// descends into it structurally (only a $ref can reach it) — this is
// what keeps an unused "definitions" entry from changing the
// classification.

// isEnumLike reports whether key's value is opaque instance data that
// must never be descended into for ids or refs (enum) or interpreted as
// a schema (const).
func isEnumLike(key string) bool {
	return key == keyEnum || key == keyConst
}
