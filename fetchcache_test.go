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
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *FetchCache {
	t.Helper()
	dir := t.TempDir()
	cache, err := NewFetchCache(filepath.Join(dir, "Store"), filepath.Join(dir, "UriOfFiles.csv"))
	require.NoError(t, err)
	return cache
}

func TestFetchCache_GetMiss(t *testing.T) {
	cache := newTestCache(t)
	_, err := cache.Get("http://example.com/a.json")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestFetchCache_PutThenGet(t *testing.T) {
	cache := newTestCache(t)
	doc := map[string]interface{}{"type": "object"}

	require.NoError(t, cache.Put("http://example.com/a.json", doc))

	got, err := cache.Get("http://example.com/a.json")
	require.NoError(t, err)
	assert.Equal(t, "object", got.(map[string]interface{})["type"])
}

func TestFetchCache_PutPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "Store")
	indexPath := filepath.Join(dir, "UriOfFiles.csv")

	cache1, err := NewFetchCache(storeDir, indexPath)
	require.NoError(t, err)
	require.NoError(t, cache1.Put("http://example.com/a.json", map[string]interface{}{"type": "string"}))

	cache2, err := NewFetchCache(storeDir, indexPath)
	require.NoError(t, err)
	got, err := cache2.Get("http://example.com/a.json")
	require.NoError(t, err)
	assert.Equal(t, "string", got.(map[string]interface{})["type"])
}

func TestFetchCache_PutSkipsDiskForFileScheme(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Put("file:///local/a.json", map[string]interface{}{"type": "object"}))

	entries, err := filepath.Glob(filepath.Join(cache.dir, "*"))
	require.NoError(t, err)
	assert.Empty(t, entries, "file:// documents should not be persisted to Store/")

	got, err := cache.Get("file:///local/a.json")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFetchCache_SequenceNumbersIncrease(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Put("http://example.com/a.json", map[string]interface{}{}))
	require.NoError(t, cache.Put("http://example.com/b.json", map[string]interface{}{}))

	assert.Equal(t, "js_0.json", cache.byURL["http://example.com/a.json"])
	assert.Equal(t, "js_1.json", cache.byURL["http://example.com/b.json"])
}

func TestFetchWithFallback_TestSuiteRemap(t *testing.T) {
	cache := newTestCache(t)
	calls := 0
	fetch := func(path string) ([]byte, error) {
		calls++
		if path == "http://localhost:1234/integer.json" {
			return nil, errors.New("not found at localhost")
		}
		return []byte(`{"type":"integer"}`), nil
	}

	testSuiteDir := t.TempDir()
	doc, err := cache.fetchWithFallback("http://localhost:1234/integer.json", fetch, TestSuite, testSuiteDir)
	require.NoError(t, err)
	assert.Equal(t, "integer", doc.(map[string]interface{})["type"])
	assert.Equal(t, 2, calls)
}

func TestFetchWithFallback_CorpusRawQuery(t *testing.T) {
	cache := newTestCache(t)
	fetch := func(path string) ([]byte, error) {
		if path == "http://corpus.example.com/a.json?raw=true" {
			return []byte(`{"type":"object"}`), nil
		}
		return nil, errors.New("not found")
	}

	doc, err := cache.fetchWithFallback("http://corpus.example.com/a.json", fetch, Corpus, "")
	require.NoError(t, err)
	assert.Equal(t, "object", doc.(map[string]interface{})["type"])
}

func TestFetchWithFallback_NormalNeverRetries(t *testing.T) {
	cache := newTestCache(t)
	fetch := func(path string) ([]byte, error) {
		return nil, errors.New("boom")
	}

	_, err := cache.fetchWithFallback("http://example.com/a.json", fetch, Normal, "")
	assert.Error(t, err)
}

func TestRepositoryKind_String(t *testing.T) {
	assert.Equal(t, "NORMAL", Normal.String())
	assert.Equal(t, "CORPUS", Corpus.String())
	assert.Equal(t, "TESTSUITE", TestSuite.String())
}
