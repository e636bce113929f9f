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
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	gojson "github.com/goccy/go-json"
)

// Document is a parsed JSON Schema document (or subschema): a JSON
// object, represented the way encoding/json (and goccy/go-json)
// unmarshal one by default.
type Document = map[string]interface{}

// Options configures a Normalize call. The zero value disallows remote
// fetches and applies no RepositoryKind fallback, the most conservative
// configuration.
//
// Grounded on go-openapi/spec's ExpandOptions (expander.go).
type Options struct {
	// AllowRemote permits loading documents not already loaded in this
	// Normalize call, through Cache and then Fetch. When false, an
	// inter-file $ref to an unloaded document fails with
	// ErrDistributedSchema, even if Cache holds that document.
	AllowRemote bool

	// RepositoryKind selects the retry rule applied when a fetch
	// fails; see RepositoryKind.
	RepositoryKind RepositoryKind

	// TestSuiteDir is the local directory TestSuite-kind fallbacks
	// remap "http://localhost:1234/..." URLs into.
	TestSuiteDir string

	// Cache backs external document fetches. A default, rooted at
	// DefaultCacheDir/DefaultIndexName, is used when nil.
	Cache *FetchCache

	// Fetch overrides how raw bytes are pulled for a cache miss; tests
	// inject a stub here to avoid real network/filesystem access.
	// Defaults to swag.LoadFromFileOrHTTP.
	Fetch remoteFetcher
}

// normalizer carries the state accumulated while walking one root
// document: the session-scoped SchemaStore, the inlined "definitions"
// map being built, and which external documents have already been
// placed there.
type normalizer struct {
	store       *SchemaStore
	root        *SchemaFile
	definitions Document
	inlined     map[string]bool
}

// Normalize resolves every $ref reachable from src (a JSON Schema
// document, read as UTF-8), fetching and inlining external documents
// per opts, and returns a single self-contained document satisfying
// the closure property: no $ref in the result points outside it.
//
// baseID is the document's own identifier (its source file path or URL),
// used as the initial resolution scope and as the base every relative
// "definitions" key is computed against.
//
// Grounded on go-openapi/spec's schema_loader.go (resolverContext /
// schemaLoader.resolveRef / isCircular) and normalizer.go
// (normalizeFileRef / denormalizeFileRef), adapted from OpenAPI's typed
// Schema/Parameter/Response structs to JSON Schema's untyped document
// tree.
func Normalize(src []byte, baseID string, opts Options) (Document, error) {
	var content interface{}
	if err := gojson.Unmarshal(src, &content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftValidation, err)
	}
	obj, ok := content.(Document)
	if !ok {
		return nil, fmt.Errorf("%w: top-level document must be a JSON object", ErrDraftValidation)
	}

	baseURL, err := toURI(baseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidIdentifier, baseID, err)
	}

	sf, err := newSchemaFile(obj, baseURL)
	if err != nil {
		return nil, err
	}

	cache := opts.Cache
	if cache == nil {
		cache, err = NewFetchCache(DefaultCacheDir, DefaultIndexName)
		if err != nil {
			return nil, err
		}
	}

	store := newSchemaStore(cache, opts.Fetch, opts.AllowRemote, opts.RepositoryKind, opts.TestSuiteDir)
	store.registerRoot(sf)

	n := &normalizer{
		store:       store,
		root:        sf,
		definitions: make(Document),
		inlined:     make(map[string]bool),
	}

	debugLog("normalizing %s (draft %s)", baseURL, sf.draft)

	if err := n.normalizeNode(sf, sf.content); err != nil {
		return nil, err
	}

	if len(n.definitions) > 0 {
		existing, _ := sf.content[keyDefinitions].(Document)
		if existing == nil {
			sf.content[keyDefinitions] = n.definitions
		} else {
			for k, v := range n.definitions {
				existing[k] = v
			}
		}
	}

	return sf.content, nil
}

// normalizeNode implements the depth-first traversal: push a
// scope on entry (balanced by a pop on exit), recurse into every child
// except "enum"/"const" data and the "$ref" keyword itself, then handle
// $ref, then strip the id/$id keyword this object carried (having
// already been consumed to establish scope).
func (n *normalizer) normalizeNode(sf *SchemaFile, node interface{}) error {
	switch v := node.(type) {
	case Document:
		if _, err := sf.pushScope(v); err != nil {
			return err
		}
		defer sf.popScope()

		for k, child := range v {
			if isEnumLike(k) || k == keyRef {
				continue
			}
			if err := n.normalizeChild(sf, child); err != nil {
				return err
			}
		}

		if err := n.handleRef(sf, v); err != nil {
			return err
		}

		delete(v, sf.draft.IDKeyword())
		return nil

	case []interface{}:
		for _, item := range v {
			if err := n.normalizeChild(sf, item); err != nil {
				return err
			}
		}
		return nil

	default:
		// scalars carry no scope, $ref or id of their own.
		return nil
	}
}

func (n *normalizer) normalizeChild(sf *SchemaFile, child interface{}) error {
	switch child.(type) {
	case Document, []interface{}:
		return n.normalizeNode(sf, child)
	default:
		return nil
	}
}

// handleRef resolves obj's $ref (if any) against sf's current scope,
// classifies it as intra- or inter-file,
// inline/descend as needed, and rewrite obj's $ref to a local pointer
// rooted at the output document.
func (n *normalizer) handleRef(sf *SchemaFile, obj Document) error {
	refStr, ok := obj[keyRef].(string)
	if !ok {
		return nil
	}

	scope := sf.currentScope()

	childRef, err := NewRef(refStr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidIdentifier, refStr, err)
	}

	resolved := resolveURI(scope, childRef.GetURL())
	fragRaw := resolved.EscapedFragment()
	targetDocID := removeFragment(resolved)

	var targetSF *SchemaFile
	if targetDocID.String() == sf.identifier.String() {
		targetSF = sf
	} else {
		targetSF, err = n.store.getLoaded(targetDocID)
		if err != nil {
			return err
		}
	}
	intraFile := targetSF == sf

	localTokens, err := n.resolveFragment(targetSF, resolved, fragRaw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFragment, refStr, err)
	}

	targetNode, err := lookupPointer(targetSF.content, localTokens)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFragment, refStr, err)
	}

	if intraFile {
		if !n.store.markVisited(targetNode) {
			if err := n.normalizeNode(sf, targetNode); err != nil {
				return err
			}
		}
	} else if !n.inlined[targetSF.identifier.String()] {
		n.inlined[targetSF.identifier.String()] = true
		n.definitions[n.store.relID(targetSF)] = targetSF.content
		n.store.markVisited(targetSF.content)
		if err := n.normalizeNode(targetSF, targetSF.content); err != nil {
			return err
		}
	}

	fullTokens := append(n.prefixFor(targetSF), localTokens...)
	obj[keyRef] = "#" + encodePointer(fullTokens)
	return nil
}

// resolveFragment implements the fragment rules: empty
// fragment -> no tokens (whole document), pointer fragment -> its
// decoded tokens, plain-name fragment -> the path of the subobject whose
// id keyword resolves to that name.
func (n *normalizer) resolveFragment(targetSF *SchemaFile, resolved *url.URL, fragRaw string) ([]string, error) {
	switch {
	case fragRaw == "":
		return nil, nil
	case isPointerFragment(fragRaw):
		return decodePointer(fragRaw)
	default:
		tokens, ok := findByAnchor(targetSF, resolved)
		if !ok {
			return nil, ErrInvalidFragment
		}
		return tokens, nil
	}
}

// prefixFor returns the path, from the root of the normalized output, at
// which sf's content will be found: nil for the root document itself,
// or ["definitions", relID] for an inlined external document.
func (n *normalizer) prefixFor(sf *SchemaFile) []string {
	if sf == n.root {
		return nil
	}
	return []string{keyDefinitions, n.store.relID(sf)}
}

// lookupPointer navigates node by a sequence of raw (decoded) JSON
// Pointer reference tokens, per RFC 6901, via go-openapi/jsonpointer:
// tokens are re-escaped into a pointer string and evaluated with
// jsonpointer.Pointer.Get rather than a hand-rolled descent, the same
// role jsonpointer plays resolving $ref targets in go-openapi/spec.
func lookupPointer(node interface{}, tokens []string) (interface{}, error) {
	p, err := jsonpointer.New(pointerStringFromTokens(tokens))
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	val, _, err := p.Get(node)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func pointerStringFromTokens(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteByte('/')
		b.WriteString(jsonpointer.Escape(tok))
	}
	return b.String()
}

// findByAnchor locates the subobject of sf whose id keyword resolves
// (against the scope it is nested in) to wantedAbs, and returns the
// pointer tokens leading to it. This handles the "plain identifier"
// fragment form used by draft-04's location-independent identifiers
// (id values like "#foo" with no leading slash).
func findByAnchor(sf *SchemaFile, wantedAbs *url.URL) ([]string, bool) {
	var found []string
	ok := false

	var walk func(node interface{}, scope *url.URL, path []string) bool
	walk = func(node interface{}, scope *url.URL, path []string) bool {
		m, isObj := node.(Document)
		if !isObj {
			return false
		}

		childScope := scope
		if idVal, has := m[sf.draft.IDKeyword()]; has {
			if idStr, isStr := idVal.(string); isStr {
				if idURL, err := toURI(idStr); err == nil {
					resolved := resolveURI(scope, idURL)
					if resolved.String() == wantedAbs.String() {
						found = append([]string(nil), path...)
						return true
					}
					childScope = removeFragment(resolved)
				}
			}
		}

		for k, v := range m {
			if isEnumLike(k) {
				continue
			}
			childPath := append(append([]string(nil), path...), k)
			switch cv := v.(type) {
			case Document:
				if walk(cv, childScope, childPath) {
					return true
				}
			case []interface{}:
				for i, item := range cv {
					itemPath := append(append([]string(nil), childPath...), strconv.Itoa(i))
					if walk(item, childScope, itemPath) {
						return true
					}
				}
			}
		}
		return false
	}

	ok = walk(sf.content, sf.identifier, nil)
	return found, ok
}
