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
	"fmt"
	"net/url"
)

// SchemaFile is one loaded JSON Schema document together with its
// identifier, detected draft and resolution-scope stack. Grounded on
// go-openapi/spec's resolverContext/schemaLoader pairing in
// schema_loader.go, but scoped to a single document rather than a whole
// OpenAPI resolution session (that session-wide role belongs to
// SchemaStore).
type SchemaFile struct {
	identifier *url.URL
	content    map[string]interface{}
	draft      Draft
	scopeStack []*url.URL
}

// newSchemaFile wraps content as a SchemaFile identified by sourceID,
// detecting its draft and applying any top-level id/$id override: if the
// document declares its own identifier, that identifier (resolved
// against sourceID) takes precedence.
func newSchemaFile(content map[string]interface{}, sourceID *url.URL) (*SchemaFile, error) {
	draft := detectDraft(content)

	identifier := sourceID
	if idVal, ok := content[draft.IDKeyword()]; ok {
		idStr, ok := idVal.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s keyword is not a string", ErrInvalidIdentifier, draft.IDKeyword())
		}
		idURL, err := toURI(idStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidIdentifier, idStr, err)
		}
		resolved := resolveURI(sourceID, idURL)
		identifier = removeFragment(resolved)
	}

	return &SchemaFile{
		identifier: identifier,
		content:    content,
		draft:      draft,
	}, nil
}

// Identifier returns the absolute, fragment-free URI this file is known
// by.
func (sf *SchemaFile) Identifier() *url.URL { return sf.identifier }

// Content returns the parsed top-level JSON object of the file.
func (sf *SchemaFile) Content() map[string]interface{} { return sf.content }

// Draft returns the draft detected for this file at load time.
func (sf *SchemaFile) Draft() Draft { return sf.draft }

// currentScope returns the effective resolution scope: the top of the
// scope stack, or the file's identifier if the stack is empty.
func (sf *SchemaFile) currentScope() *url.URL {
	if len(sf.scopeStack) == 0 {
		return sf.identifier
	}
	return sf.scopeStack[len(sf.scopeStack)-1]
}

// pushScope enters a nested object, carrying forward the current scope
// unless the object introduces its own id/$id, in which case the new
// scope is that id resolved against the current scope. Every call to
// pushScope must be matched by a popScope on exit, balanced, so the
// stack always reflects the lexical nesting of the traversal.
func (sf *SchemaFile) pushScope(obj map[string]interface{}) (*url.URL, error) {
	current := sf.currentScope()

	idVal, ok := obj[sf.draft.IDKeyword()]
	if !ok {
		sf.scopeStack = append(sf.scopeStack, current)
		return current, nil
	}

	idStr, ok := idVal.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s keyword is not a string", ErrInvalidIdentifier, sf.draft.IDKeyword())
	}

	idURL, err := toURI(idStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidIdentifier, idStr, err)
	}

	scope := removeFragment(resolveURI(current, idURL))

	sf.scopeStack = append(sf.scopeStack, scope)
	return scope, nil
}

// popScope balances a prior pushScope call.
func (sf *SchemaFile) popScope() {
	if len(sf.scopeStack) == 0 {
		return
	}
	sf.scopeStack = sf.scopeStack[:len(sf.scopeStack)-1]
}

// equalIdentifier reports whether two SchemaFiles address the same
// document: their identifiers are equal.
func (sf *SchemaFile) equalIdentifier(other *SchemaFile) bool {
	if sf == nil || other == nil {
		return sf == other
	}
	return sf.identifier.String() == other.identifier.String()
}
