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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRef_Valid(t *testing.T) {
	ref, err := NewRef("other.json#/definitions/x")
	require.NoError(t, err)
	assert.Equal(t, "other.json#/definitions/x", ref.String())
}

func TestNewRef_Invalid(t *testing.T) {
	_, err := NewRef("http://a b/bad")
	assert.Error(t, err)
}

func TestRef_RemoteURI(t *testing.T) {
	ref := MustCreateRef("schemas/other.json#/definitions/x")
	assert.Equal(t, "schemas/other.json", ref.RemoteURI())
}

func TestRef_RemoteURI_FragmentOnly(t *testing.T) {
	ref := MustCreateRef("#/definitions/x")
	assert.Equal(t, "", ref.RemoteURI())
}

func TestRef_Inherits(t *testing.T) {
	parent := MustCreateRef("http://example.com/a/root.json")
	child := MustCreateRef("other.json#/definitions/x")

	merged, err := parent.Inherits(child)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a/other.json#/definitions/x", merged.String())
}

func TestMustCreateRef_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		MustCreateRef("http://a b/bad")
	})
}
