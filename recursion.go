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
	"strconv"
	"strings"
)

// Classification is the verdict CheckRecursion reaches for a normalized
// document.
type Classification int

const (
	// None means no $ref cycle is reachable from the document's root.
	None Classification = iota
	// Guarded means a cycle exists, but every cycle that reaches back to
	// an in-progress node crosses at least one guard.
	Guarded
	// Recursion means at least one cycle closes without crossing any
	// guard: an instance could recurse through it without end.
	Recursion
)

// String implements fmt.Stringer.
func (c Classification) String() string {
	switch c {
	case Guarded:
		return "GUARDED"
	case Recursion:
		return "RECURSION"
	default:
		return "NONE"
	}
}

// CheckRecursion walks doc (expected to already satisfy Normalize's
// closure property: every $ref is a local JSON pointer into doc itself)
// and classifies its reachable $ref graph as NONE, GUARDED or RECURSION.
//
// Grounded on go-openapi/spec's schema_loader.go isCircular/
// resolverContext.circulars in-progress-set pattern for detecting a
// cycle without unbounded recursion. See draftmodel.go for the list of
// composition keywords and their guard rules (descend/descendItems
// below implement them directly, entry by entry).
func CheckRecursion(doc Document) (Classification, error) {
	w := &recursionWalker{doc: doc, onStack: make(map[string]int)}
	if err := w.visit("", doc, false); err != nil {
		return None, err
	}
	return w.result, nil
}

// recursionWalker holds the state of one DFS over a normalized
// document's $ref graph: the current path as a parallel (pointer,
// incoming-edge-guard) stack, an index for O(1) ancestor lookup, and the
// classification accumulated so far (monotonically upgraded, never
// downgraded, since a single unguarded cycle anywhere makes the whole
// document RECURSION regardless of how many guarded cycles also exist).
type recursionWalker struct {
	doc        Document
	stackPtr   []string
	stackGuard []bool
	onStack    map[string]int
	result     Classification
}

// visit descends into node, located at ptr (a canonical JSON Pointer
// string built from raw, unescaped reference tokens) and reached via an
// edge that was a guard iff guardedSoFar. Non-object nodes (including
// boolean schemas) terminate the walk: they carry no $ref or further
// composition.
func (w *recursionWalker) visit(ptr string, node interface{}, guardedSoFar bool) error {
	obj, ok := node.(Document)
	if !ok {
		return nil
	}

	if idx, already := w.onStack[ptr]; already {
		w.closeCycle(idx, guardedSoFar)
		return nil
	}

	w.onStack[ptr] = len(w.stackPtr)
	w.stackPtr = append(w.stackPtr, ptr)
	w.stackGuard = append(w.stackGuard, guardedSoFar)
	defer func() {
		w.stackPtr = w.stackPtr[:len(w.stackPtr)-1]
		w.stackGuard = w.stackGuard[:len(w.stackGuard)-1]
		delete(w.onStack, ptr)
	}()

	// Per JSON Schema draft-04/06/07, a schema object carrying "$ref"
	// has every sibling keyword ignored by validators; the recursion
	// checker follows the same rule and does not descend into them.
	if refStr, hasRef := obj[keyRef].(string); hasRef {
		targetPtr, targetNode, err := w.resolveLocalRef(refStr)
		if err != nil {
			return err
		}
		// the $ref hop itself is never a guard.
		return w.visit(targetPtr, targetNode, false)
	}

	return w.descend(ptr, obj, guardedSoFar)
}

// closeCycle records the classification of a cycle just closed by a
// back-edge to the in-progress node at stack index idx: GUARDED if that
// edge, or any edge strictly between idx and the top of the stack, was a
// guard; RECURSION otherwise. Only the cycle's own edges are considered,
// not whatever guard state was already in effect before idx was
// entered, so a guard crossed on the way INTO a cycle never masks an
// unguarded cycle found inside it.
func (w *recursionWalker) closeCycle(idx int, closingEdgeGuard bool) {
	guarded := closingEdgeGuard
	for _, g := range w.stackGuard[idx+1:] {
		if g {
			guarded = true
		}
	}
	if guarded {
		w.upgrade(Guarded)
	} else {
		w.upgrade(Recursion)
	}
}

func (w *recursionWalker) upgrade(c Classification) {
	if c > w.result {
		w.result = c
	}
}

// descend walks obj's composition keywords, recursing into each
// subschema with the guard flag that keyword (and, for properties and
// items, that specific entry) admits.
func (w *recursionWalker) descend(ptr string, obj Document, guardedSoFar bool) error {
	if allOf, ok := obj["allOf"].([]interface{}); ok {
		for i, item := range allOf {
			if err := w.visit(childIndex(ptr, "allOf", i), item, false); err != nil {
				return err
			}
		}
	}

	for _, key := range [...]string{"oneOf", "anyOf"} {
		arr, ok := obj[key].([]interface{})
		if !ok {
			continue
		}
		for i, item := range arr {
			if err := w.visit(childIndex(ptr, key, i), item, true); err != nil {
				return err
			}
		}
	}

	if notSchema, ok := obj["not"].(Document); ok {
		if err := w.visit(childKey(ptr, "not"), notSchema, false); err != nil {
			return err
		}
	}

	if props, ok := obj["properties"].(Document); ok {
		required := requiredSet(obj)
		for name, sub := range props {
			guard := !required[name]
			if err := w.visit(childName(ptr, "properties", name), sub, guard); err != nil {
				return err
			}
		}
	}

	if pp, ok := obj["patternProperties"].(Document); ok {
		for name, sub := range pp {
			if err := w.visit(childName(ptr, "patternProperties", name), sub, true); err != nil {
				return err
			}
		}
	}

	if ap, ok := obj["additionalProperties"].(Document); ok {
		if err := w.visit(childKey(ptr, "additionalProperties"), ap, true); err != nil {
			return err
		}
	}

	if err := w.descendItems(ptr, obj, guardedSoFar); err != nil {
		return err
	}

	if ai, ok := obj["additionalItems"].(Document); ok {
		if err := w.visit(childKey(ptr, "additionalItems"), ai, true); err != nil {
			return err
		}
	}

	if contains, ok := obj["contains"].(Document); ok {
		if err := w.visit(childKey(ptr, "contains"), contains, true); err != nil {
			return err
		}
	}

	if deps, ok := obj["dependencies"].(Document); ok {
		for name, sub := range deps {
			// dependencies also accepts an array-of-property-names form,
			// which carries no subschema and is not a composition edge.
			if subSchema, isSchema := sub.(Document); isSchema {
				if err := w.visit(childName(ptr, "dependencies", name), subSchema, true); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// descendItems handles "items" in both its draft-04/06/07 forms: a
// single schema applying to every element (a guard unless "minItems"
// forces at least one element to exist), or a tuple of positional
// schemas (each a guard only for positions beyond what "minItems"
// forces to be present).
func (w *recursionWalker) descendItems(ptr string, obj Document, guardedSoFar bool) error {
	items, present := obj["items"]
	if !present {
		return nil
	}

	switch it := items.(type) {
	case Document:
		guard := minItemsOf(obj) == 0
		return w.visit(childKey(ptr, "items"), it, guard)
	case []interface{}:
		minItems := minItemsOf(obj)
		for i, sub := range it {
			guard := i >= minItems
			if err := w.visit(childIndex(ptr, "items", i), sub, guard); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// resolveLocalRef resolves a $ref already rewritten by Normalize into a
// local JSON Pointer ("#/..." or "#") and returns both the node it
// reaches and the canonical pointer string identifying it for the
// in-progress stack.
func (w *recursionWalker) resolveLocalRef(refStr string) (string, interface{}, error) {
	if !strings.HasPrefix(refStr, "#") {
		return "", nil, fmt.Errorf("%w: %s: not a local pointer; was the document normalized?", ErrInvalidFragment, refStr)
	}

	tokens, err := decodePointer(strings.TrimPrefix(refStr, "#"))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrInvalidFragment, refStr, err)
	}

	node, err := lookupPointer(w.doc, tokens)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrInvalidFragment, refStr, err)
	}

	return pointerString(tokens), node, nil
}

func pointerString(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(encodePointerToken(t))
	}
	return b.String()
}

func childKey(parent, key string) string {
	return parent + "/" + encodePointerToken(key)
}

func childName(parent, key, name string) string {
	return childKey(parent, key) + "/" + encodePointerToken(name)
}

func childIndex(parent, key string, idx int) string {
	return childKey(parent, key) + "/" + strconv.Itoa(idx)
}

func requiredSet(obj Document) map[string]bool {
	set := make(map[string]bool)
	arr, ok := obj["required"].([]interface{})
	if !ok {
		return set
	}
	for _, v := range arr {
		if s, ok := v.(string); ok {
			set[s] = true
		}
	}
	return set
}

// minItemsOf reads "minItems" as a non-negative int, defaulting to 0
// (JSON Schema's own default) for anything absent or malformed. JSON
// numbers decode to float64 through both encoding/json and goccy/go-json
// when the target is interface{}.
func minItemsOf(obj Document) int {
	switch n := obj["minItems"].(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return int(n)
	case int:
		if n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}
