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
	"reflect"
)

// RepositoryKind selects how a failed remote fetch is retried.
type RepositoryKind int

const (
	// Normal never retries a failed fetch.
	Normal RepositoryKind = iota
	// Corpus retries with a "raw=true" query, a convention of a
	// particular hosted schema corpus.
	Corpus
	// TestSuite remaps the JSON Schema test suite's conventional
	// "http://localhost:1234/..." remotes to a local directory.
	TestSuite
)

// String implements fmt.Stringer.
func (k RepositoryKind) String() string {
	switch k {
	case Corpus:
		return "CORPUS"
	case TestSuite:
		return "TESTSUITE"
	default:
		return "NORMAL"
	}
}

// SchemaStore holds everything scoped to one Normalize invocation: the
// set of documents loaded so far (in first-insertion order, so inlined
// "definitions" keys are assigned deterministically), the set of JSON
// nodes already normalized (to break cycles while inlining), and the
// policy under which external documents may be fetched.
//
// Grounded on go-openapi/spec's resolverContext (schema_loader.go):
// store-scoped shared state threaded through every recursive descent,
// rather than a global.
type SchemaStore struct {
	RootID       *url.URL
	AllowRemote  bool
	RepoKind     RepositoryKind
	TestSuiteDir string
	cache        *FetchCache
	fetch        remoteFetcher
	loaded       []*SchemaFile
	loadedByID   map[string]int // identifier string -> index into loaded
	relIDs       map[string]string
	usedRelIDs   map[string]bool
	visited      map[uintptr]bool
}

// newSchemaStore creates an empty store backed by cache (fetchWithFallback
// retries go through it) using fetch to actually pull bytes for a miss.
func newSchemaStore(cache *FetchCache, fetch remoteFetcher, allowRemote bool, kind RepositoryKind, testSuiteDir string) *SchemaStore {
	if fetch == nil {
		fetch = defaultRemoteFetcher
	}
	return &SchemaStore{
		AllowRemote:  allowRemote,
		RepoKind:     kind,
		TestSuiteDir: testSuiteDir,
		cache:        cache,
		fetch:        fetch,
		loadedByID:   make(map[string]int),
		relIDs:       make(map[string]string),
		usedRelIDs:   make(map[string]bool),
		visited:      make(map[uintptr]bool),
	}
}

// registerRoot installs sf as the store's root document.
func (s *SchemaStore) registerRoot(sf *SchemaFile) {
	s.RootID = sf.identifier
	s.insert(sf)
}

func (s *SchemaStore) insert(sf *SchemaFile) {
	idx := len(s.loaded)
	s.loaded = append(s.loaded, sf)
	s.loadedByID[sf.identifier.String()] = idx
}

// getLoaded returns the already-loaded SchemaFile for id if one exists;
// otherwise, if AllowRemote is set, it fetches and loads one (applying
// the store's RepositoryKind fallback on failure), registers it, and
// returns it. If AllowRemote is false and the file is not already
// loaded, it fails with ErrDistributedSchema.
func (s *SchemaStore) getLoaded(id *url.URL) (*SchemaFile, error) {
	key := id.String()
	if idx, ok := s.loadedByID[key]; ok {
		return s.loaded[idx], nil
	}

	if !s.AllowRemote {
		return nil, fmt.Errorf("%w: %s", ErrDistributedSchema, key)
	}

	doc, err := s.cache.fetchWithFallback(key, s.fetch, s.RepoKind, s.TestSuiteDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidReference, key, err)
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s: top-level document is not an object", ErrDraftValidation, key)
	}

	sf, err := newSchemaFile(obj, id)
	if err != nil {
		return nil, err
	}

	// the id/$id override might have pointed newSchemaFile at a
	// different identifier than the one we fetched by; register both
	// so future lookups by either succeed.
	s.loadedByID[key] = len(s.loaded)
	s.insert(sf)
	return sf, nil
}

// markVisited records node as normalized in this session and reports
// whether it had already been visited before this call, the condition
// under which the caller must not descend into it again. Identity is
// taken via reflect.Value.Pointer() on the node's backing map/slice
// header, Go's idiom for a reference-type identity key, since Go's map
// and slice headers already carry that identity without needing a
// separate arena of indices.
func (s *SchemaStore) markVisited(node interface{}) bool {
	key, ok := nodeIdentity(node)
	if !ok {
		// scalars (bool/string/number/nil) have no identity to track
		// and cannot introduce a cycle on their own.
		return false
	}
	if s.visited[key] {
		return true
	}
	s.visited[key] = true
	return false
}

func nodeIdentity(node interface{}) (uintptr, bool) {
	v := reflect.ValueOf(node)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		if v.IsNil() {
			return 0, false
		}
		return v.Pointer(), true
	default:
		return 0, false
	}
}

// relID returns the deterministic relative identifier string used to key
// sf's content under the normalized document's "definitions" map,
// assigning one on first request and reusing it thereafter. Collisions
// between two distinct identifiers that relativize to the same string
// (e.g. same file name under different directories) are disambiguated by
// appending the document's insertion index.
func (s *SchemaStore) relID(sf *SchemaFile) string {
	key := sf.identifier.String()
	if rel, ok := s.relIDs[key]; ok {
		return rel
	}

	rel := relativizeIdentifier(sf.identifier, s.RootID)
	if rel == "" {
		rel = "root"
	}
	candidate := rel
	if s.usedRelIDs[candidate] {
		idx := s.loadedByID[key]
		candidate = fmt.Sprintf("%s-%d", rel, idx)
	}
	s.usedRelIDs[candidate] = true
	s.relIDs[key] = candidate
	return candidate
}
