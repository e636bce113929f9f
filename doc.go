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

// Package refnorm normalizes distributed JSON Schema documents (drafts
// 04, 06 and 07) into a single self-contained document and classifies
// recursion in the result.
//
// A schema is "distributed" when it references other schemas, possibly
// hosted in other files or over the network, via $ref. Normalize walks
// such a schema, resolves every $ref against its lexical scope, fetches
// and inlines every externally referenced document under a synthetic
// top-level "definitions" object, and rewrites every $ref to a local
// JSON pointer rooted at the normalized document. CheckRecursion then
// walks the rewritten $ref graph of that output and reports whether any
// cycle it finds is guaranteed to terminate (GUARDED), cannot terminate
// (RECURSION), or doesn't exist at all (NONE).
package refnorm
