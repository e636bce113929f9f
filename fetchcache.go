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
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-openapi/swag"
	gojson "github.com/goccy/go-json"
)

// DefaultCacheDir and DefaultIndexName name the persisted store: a
// directory of verbatim cached documents plus a sidecar CSV index
// mapping local file name to source URL.
const (
	DefaultCacheDir   = "Store"
	DefaultIndexName  = "UriOfFiles.csv"
	cachedFilePattern = "js_%d.json"
)

// FetchCache is a process-wide, URL-keyed store of fetched JSON
// documents, backed by a directory of numbered files and a CSV sidecar
// index. It is safe for concurrent use: index append and document write
// are serialized by a single mutex, since throughput here is dominated
// by network I/O, not lock contention.
//
// Grounded on the in-memory ResolutionCache in go-openapi/spec's
// expander.go (Get/Set shape, mutex-guarded map), extended with
// on-disk sidecar persistence so a cache survives across runs.
type FetchCache struct {
	mu        sync.Mutex
	dir       string
	indexPath string
	byURL     map[string]string // url -> local file name
	docs      map[string]interface{}
	nextSeq   int
}

// NewFetchCache opens (or lazily creates) a cache rooted at dir, with its
// sidecar index at indexPath. Deleting both dir and indexPath
// reinitializes the cache.
func NewFetchCache(dir, indexPath string) (*FetchCache, error) {
	c := &FetchCache{
		dir:       dir,
		indexPath: indexPath,
		byURL:     make(map[string]string),
		docs:      make(map[string]interface{}),
	}
	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FetchCache) loadIndex() error {
	f, err := os.Open(c.indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("fetch cache: reading index %s: %w", c.indexPath, err)
	}
	for _, rec := range records {
		localName, u := rec[0], rec[1]
		c.byURL[u] = localName
		if n, ok := sequenceOf(localName); ok && n >= c.nextSeq {
			c.nextSeq = n + 1
		}
	}
	return nil
}

func sequenceOf(localName string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(localName, cachedFilePattern, &n); err != nil {
		return 0, false
	}
	return n, true
}

// Get returns the cached document for url, or ErrNotCached on a miss.
func (c *FetchCache) Get(rawURL string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(rawURL)
}

func (c *FetchCache) getLocked(rawURL string) (interface{}, error) {
	if doc, ok := c.docs[rawURL]; ok {
		return doc, nil
	}

	localName, ok := c.byURL[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, rawURL)
	}

	data, err := os.ReadFile(filepath.Join(c.dir, localName))
	if err != nil {
		return nil, fmt.Errorf("fetch cache: reading %s: %w", localName, err)
	}

	var doc interface{}
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fetch cache: decoding %s: %w", localName, err)
	}
	c.docs[rawURL] = doc
	return doc, nil
}

// Put stores doc under rawURL. Documents whose scheme is "file" are kept
// in-memory only for the lifetime of the process: they already live on
// local disk, so persisting a duplicate copy under Store/ would just be
// churn. Everything else is written to a freshly numbered file and
// appended to the sidecar index.
func (c *FetchCache) Put(rawURL string, doc interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.docs[rawURL] = doc

	u, err := url.Parse(rawURL)
	if err == nil && u.Scheme == "file" {
		return nil
	}
	if _, already := c.byURL[rawURL]; already {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("fetch cache: creating store dir: %w", err)
	}

	data, err := gojson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("fetch cache: encoding %s: %w", rawURL, err)
	}

	localName := fmt.Sprintf(cachedFilePattern, c.nextSeq)
	c.nextSeq++

	if err := os.WriteFile(filepath.Join(c.dir, localName), data, 0o644); err != nil {
		return fmt.Errorf("fetch cache: writing %s: %w", localName, err)
	}
	if err := c.appendIndex(localName, rawURL); err != nil {
		return err
	}
	c.byURL[rawURL] = localName
	return nil
}

func (c *FetchCache) appendIndex(localName, rawURL string) error {
	f, err := os.OpenFile(c.indexPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("fetch cache: opening index: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{localName, rawURL}); err != nil {
		return fmt.Errorf("fetch cache: appending index: %w", err)
	}
	w.Flush()
	return w.Error()
}

// remoteFetcher fetches bytes for a URL or local file path, following
// HTTP redirects. Bound to swag.LoadFromFileOrHTTP by default, which
// already implements exactly this contract; tests inject a stub to avoid
// real filesystem/network contact.
type remoteFetcher func(path string) ([]byte, error)

var defaultRemoteFetcher remoteFetcher = func(path string) ([]byte, error) {
	return swag.LoadFromFileOrHTTP(path)
}

// fetchWithFallback resolves rawURL to a document, consulting the cache
// first, then the network/filesystem via fetch, applying a
// RepositoryKind-specific rewrite when the initial attempt fails. This
// models the three retry conventions as one configurable rewrite rule
// rather than three separate code paths.
func (c *FetchCache) fetchWithFallback(rawURL string, fetch remoteFetcher, kind RepositoryKind, testSuiteDir string) (interface{}, error) {
	if doc, err := c.Get(rawURL); err == nil {
		return doc, nil
	}

	doc, err := c.fetchAndStore(rawURL, fetch)
	if err == nil {
		return doc, nil
	}

	rewritten, ok := fallbackURL(rawURL, kind, testSuiteDir)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidIdentifier, rawURL, err)
	}

	doc, ferr := c.fetchAndStore(rewritten, fetch)
	if ferr != nil {
		return nil, fmt.Errorf("%w: %s (fallback %s): %w", ErrInvalidIdentifier, rawURL, rewritten, ferr)
	}
	return doc, nil
}

func (c *FetchCache) fetchAndStore(rawURL string, fetch remoteFetcher) (interface{}, error) {
	data, err := fetch(rawURL)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	if err := c.Put(rawURL, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// fallbackURL computes the RepositoryKind-specific retry target for a URL
// whose primary fetch failed. TESTSUITE remaps the well-known JSON Schema
// test suite "remotes" host to a local directory; CORPUS re-issues the
// request with a "raw=true" query, a convention of a particular hosted
// corpus; NORMAL never retries.
func fallbackURL(rawURL string, kind RepositoryKind, testSuiteDir string) (string, bool) {
	switch kind {
	case TestSuite:
		const localhostPrefix = "http://localhost:1234/"
		if strings.HasPrefix(rawURL, localhostPrefix) && testSuiteDir != "" {
			rest := strings.TrimPrefix(rawURL, localhostPrefix)
			return filepath.Join(testSuiteDir, filepath.FromSlash(rest)), true
		}
		return "", false
	case Corpus:
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", false
		}
		q := u.Query()
		q.Set("raw", "true")
		u.RawQuery = q.Encode()
		return u.String(), true
	default:
		return "", false
	}
}
