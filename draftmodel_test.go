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
)

func TestDetectDraft(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want Draft
	}{
		{
			name: "explicit draft-04 schema URI",
			doc:  Document{keySchema: "http://json-schema.org/draft-04/schema#"},
			want: Draft4,
		},
		{
			name: "explicit draft-07 schema URI",
			doc:  Document{keySchema: "http://json-schema.org/draft-07/schema#"},
			want: DraftHigher,
		},
		{
			name: "no $schema, no $id anywhere",
			doc:  Document{"type": "object"},
			want: Draft4,
		},
		{
			name: "no $schema, $id present at top level",
			doc:  Document{keyID: "http://example.com/root.json"},
			want: DraftHigher,
		},
		{
			name: "no $schema, $id nested under properties",
			doc: Document{
				"properties": Document{
					"a": Document{keyID: "#frag"},
				},
			},
			want: DraftHigher,
		},
		{
			name: "$id inside enum is not a signal",
			doc: Document{
				"enum": []interface{}{
					Document{keyID: "not-a-real-id"},
				},
			},
			want: Draft4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, detectDraft(tc.doc))
		})
	}
}

func TestDraft_IDKeyword(t *testing.T) {
	assert.Equal(t, "id", Draft4.IDKeyword())
	assert.Equal(t, "$id", DraftHigher.IDKeyword())
}

func TestDraft_String(t *testing.T) {
	assert.Equal(t, "draft-04", Draft4.String())
	assert.Equal(t, "draft-06/07", DraftHigher.String())
}

func TestIsEnumLike(t *testing.T) {
	assert.True(t, isEnumLike("enum"))
	assert.True(t, isEnumLike("const"))
	assert.False(t, isEnumLike("properties"))
}
