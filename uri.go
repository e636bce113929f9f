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
	"path"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// toURI parses s into a URI, percent-encoding any raw spaces first since
// schema identifiers in the wild are sometimes written with unescaped
// spaces in file paths (e.g. "C:/My Schemas/x.json").
func toURI(s string) (*url.URL, error) {
	escaped := strings.ReplaceAll(s, " ", "%20")
	u, err := url.Parse(escaped)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// resolveURI resolves ref against base per RFC 3986, the way
// url.URL.ResolveReference does. A nil base is treated as ref itself.
func resolveURI(base, ref *url.URL) *url.URL {
	if base == nil {
		cp := *ref
		return &cp
	}
	return base.ResolveReference(ref)
}

// removeFragment returns a copy of u with any fragment stripped, i.e. the
// document identifier without its pointer-into-the-document suffix.
func removeFragment(u *url.URL) *url.URL {
	cp := *u
	cp.Fragment = ""
	cp.RawFragment = ""
	return &cp
}

// encodePointerToken escapes a single JSON-Pointer reference token per
// RFC 6901 ("~" -> "~0", "/" -> "~1"), delegating to go-openapi/jsonpointer
// rather than hand-rolling the two ReplaceAll calls.
func encodePointerToken(tok string) string {
	return jsonpointer.Escape(tok)
}

// decodePointerToken reverses encodePointerToken.
func decodePointerToken(tok string) string {
	return jsonpointer.Unescape(tok)
}

// encodePointer builds a JSON-Pointer fragment string ("/a/b/c") from a
// slice of raw (unescaped) reference tokens, pointer-encoding each token
// and then percent-encoding the result for safe use as a URI fragment.
func encodePointer(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteByte('/')
		b.WriteString(encodePointerToken(tok))
	}
	frag := url.URL{Fragment: b.String()}
	return frag.EscapedFragment()
}

// decodePointer splits a percent-encoded JSON-Pointer fragment ("/a/b~1c")
// back into raw reference tokens ([]string{"a", "b/c"}).
func decodePointer(frag string) ([]string, error) {
	frag = strings.TrimPrefix(frag, "/")
	if frag == "" {
		return nil, nil
	}
	unescaped, err := url.PathUnescape(frag)
	if err != nil {
		unescaped = frag
	}
	parts := strings.Split(unescaped, "/")
	tokens := make([]string, len(parts))
	for i, p := range parts {
		tokens[i] = decodePointerToken(p)
	}
	return tokens, nil
}

// isPointerFragment reports whether a $ref fragment is a JSON pointer
// ("/..." or empty/root) as opposed to a plain-name schema identifier
// (an anchor-style fragment with no leading slash).
func isPointerFragment(frag string) bool {
	return frag == "" || strings.HasPrefix(frag, "/")
}

// relativizeIdentifier renders id relative to rootID when they share a
// scheme and authority (so the same document tree is being addressed),
// else falls back to the absolute form. This gives deterministic,
// human-legible keys for the normalized document's "definitions" map.
func relativizeIdentifier(id, rootID *url.URL) string {
	if id == nil {
		return ""
	}
	if rootID == nil || id.Scheme != rootID.Scheme || id.Host != rootID.Host {
		return removeFragment(id).String()
	}

	rootDir := path.Dir(rootID.Path)
	rel, err := relPath(rootDir, id.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return removeFragment(id).String()
	}
	if rel == "." || rel == "" {
		rel = path.Base(id.Path)
	}
	return rel
}

// relPath is a URL-path-flavored analogue of filepath.Rel: both inputs
// and the output use forward slashes regardless of host OS, since schema
// identifiers are URIs, not filesystem paths.
func relPath(base, target string) (string, error) {
	baseParts := splitPath(base)
	targetParts := splitPath(target)

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	up := len(baseParts) - common
	rest := targetParts[common:]

	segs := make([]string, 0, up+len(rest))
	for i := 0; i < up; i++ {
		segs = append(segs, "..")
	}
	segs = append(segs, rest...)

	if len(segs) == 0 {
		return ".", nil
	}
	return path.Join(segs...), nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
