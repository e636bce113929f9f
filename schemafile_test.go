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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaFile_UsesSourceIDWhenNoID(t *testing.T) {
	base, _ := url.Parse("http://example.com/root.json")
	sf, err := newSchemaFile(Document{"type": "object"}, base)
	require.NoError(t, err)
	assert.Equal(t, base.String(), sf.Identifier().String())
	assert.Equal(t, Draft4, sf.Draft())
}

func TestNewSchemaFile_IDOverridesSourceID(t *testing.T) {
	base, _ := url.Parse("http://example.com/root.json")
	sf, err := newSchemaFile(Document{keyID: "http://example.com/other.json"}, base)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/other.json", sf.Identifier().String())
	assert.Equal(t, DraftHigher, sf.Draft())
}

func TestNewSchemaFile_RelativeIDResolvedAgainstSourceID(t *testing.T) {
	base, _ := url.Parse("http://example.com/a/root.json")
	sf, err := newSchemaFile(Document{"id": "sibling.json"}, base)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a/sibling.json", sf.Identifier().String())
}

func TestSchemaFile_PushPopScope(t *testing.T) {
	base, _ := url.Parse("http://example.com/root.json")
	sf, err := newSchemaFile(Document{"type": "object"}, base)
	require.NoError(t, err)

	assert.Equal(t, base.String(), sf.currentScope().String())

	scope, err := sf.pushScope(Document{"id": "nested.json"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/nested.json", scope.String())
	assert.Equal(t, "http://example.com/nested.json", sf.currentScope().String())

	sf.popScope()
	assert.Equal(t, base.String(), sf.currentScope().String())
}

func TestSchemaFile_PushScope_NoIDInheritsCurrent(t *testing.T) {
	base, _ := url.Parse("http://example.com/root.json")
	sf, err := newSchemaFile(Document{}, base)
	require.NoError(t, err)

	scope, err := sf.pushScope(Document{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, base.String(), scope.String())
}

func TestSchemaFile_PushScope_BareHashIDStaysAtCurrentScope(t *testing.T) {
	base, _ := url.Parse("http://example.com/root.json")
	sf, err := newSchemaFile(Document{}, base)
	require.NoError(t, err)

	scope, err := sf.pushScope(Document{"id": "#"})
	require.NoError(t, err)
	assert.Equal(t, base.String(), scope.String())
	assert.Empty(t, scope.Fragment)
}

func TestSchemaFile_EqualIdentifier(t *testing.T) {
	a, _ := url.Parse("http://example.com/root.json")
	b, _ := url.Parse("http://example.com/root.json")
	c, _ := url.Parse("http://example.com/other.json")

	sfA := &SchemaFile{identifier: a}
	sfB := &SchemaFile{identifier: b}
	sfC := &SchemaFile{identifier: c}

	assert.True(t, sfA.equalIdentifier(sfB))
	assert.False(t, sfA.equalIdentifier(sfC))
	assert.False(t, sfA.equalIdentifier(nil))
}
