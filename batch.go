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
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
)

// reportHeader is the literal CSV header of a batch normalization
// report.
var reportHeader = []string{"name", "recursiv", "unguarded_recursiv", "invalid_reference", "illegal_draft"}

// ReportRow is one schema's outcome in a Batch run.
type ReportRow struct {
	Name              string
	Recursiv          bool
	UnguardedRecursiv bool
	InvalidReference  bool
	IllegalDraft      bool
}

// Report is the accumulated outcome of a Batch run over a directory.
type Report struct {
	Rows []ReportRow
}

// WriteCSV writes r with header
// "name,recursiv,unguarded_recursiv,invalid_reference,illegal_draft",
// TRUE/FALSE per boolean column.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write([]string{
			row.Name,
			boolCell(row.Recursiv),
			boolCell(row.UnguardedRecursiv),
			boolCell(row.InvalidReference),
			boolCell(row.IllegalDraft),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func boolCell(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Batch drives Normalize and CheckRecursion over every ".json" file in a
// directory. This is deliberately thin glue around the core, not a
// CLI: BatchRun is what a CLI entry point would call.
type Batch struct {
	Options Options
}

// BatchRun walks dir non-recursively for "*.json" files, normalizes each,
// writes "<name>_Normalized.json" alongside the input, classifies the
// result, and appends one ReportRow per file. A file that fails to load
// or normalize is still reported (InvalidReference or IllegalDraft set)
// rather than aborting the whole run, the same tolerance for a single
// bad entry that go-openapi/spec's ExpandOptions.SkipSchemas gives an
// expansion pass.
func (b Batch) BatchRun(dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("batch run: %w", err)
	}

	var report Report
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_Normalized.json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		report.Rows = append(report.Rows, b.runOne(path, entry.Name()))
	}
	return report, nil
}

func (b Batch) runOne(path, name string) ReportRow {
	row := ReportRow{Name: name}

	src, err := os.ReadFile(path)
	if err != nil {
		debugLog("batch: %s: %v", name, err)
		row.InvalidReference = true
		return row
	}

	normalized, err := Normalize(src, path, b.Options)
	if err != nil {
		debugLog("batch: %s: %v", name, err)
		switch {
		case isErr(err, ErrDraftValidation):
			row.IllegalDraft = true
		default:
			row.InvalidReference = true
		}
		return row
	}

	out, err := gojson.MarshalIndent(normalized, "", "  ")
	if err == nil {
		outPath := strings.TrimSuffix(path, ".json") + "_Normalized.json"
		if werr := os.WriteFile(outPath, out, 0o644); werr != nil {
			debugLog("batch: %s: writing normalized output: %v", name, werr)
		}
	}

	class, err := CheckRecursion(normalized)
	if err != nil {
		debugLog("batch: %s: recursion check: %v", name, err)
		row.InvalidReference = true
		return row
	}

	switch class {
	case Guarded:
		row.Recursiv = true
	case Recursion:
		row.Recursiv = true
		row.UnguardedRecursiv = true
	}
	return row
}

func isErr(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CorpusEntry is one row of a corpus index file, as used by a bulk
// "fetch everything this index names" driver mode.
type CorpusEntry struct {
	Filename string
	URL      string
	Deleted  bool
}

// ParseCorpusIndex reads a corpus index: lines of two
// whitespace-separated fields, "filename url", with the literal token
// "deleted" in place of url marking a removed entry. Blank lines are
// skipped. Read line by line with bufio rather than encoding/csv (which
// the fetch cache's sidecar index uses), since this format is
// space-separated rather than comma-separated.
func ParseCorpusIndex(r io.Reader) ([]CorpusEntry, error) {
	var entries []CorpusEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("corpus index: line %d: expected 2 fields, got %d", lineNo, len(fields))
		}
		entries = append(entries, CorpusEntry{
			Filename: fields[0],
			URL:      fields[1],
			Deleted:  fields[1] == "deleted",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus index: %w", err)
	}
	return entries, nil
}

// SizeStats compares an original document against its normalized form:
// node and byte counts, and the resulting blow-up ratio.
type SizeStats struct {
	OriginalNodes   int
	NormalizedNodes int
	OriginalBytes   int
	NormalizedBytes int
}

// BlowUpRatio returns NormalizedBytes/OriginalBytes, or 0 if the
// original was empty.
func (s SizeStats) BlowUpRatio() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.NormalizedBytes) / float64(s.OriginalBytes)
}

// Stats computes SizeStats for a (original, normalized) document pair.
// Node counts include every object, array and scalar reached by a plain
// recursive descent (not the guard-aware one CheckRecursion uses: this
// is a structural size readout, not a validation-composition walk).
func Stats(original, normalized Document) SizeStats {
	origBytes, _ := gojson.Marshal(original)
	normBytes, _ := gojson.Marshal(normalized)
	return SizeStats{
		OriginalNodes:   countNodes(original),
		NormalizedNodes: countNodes(normalized),
		OriginalBytes:   len(origBytes),
		NormalizedBytes: len(normBytes),
	}
}

func countNodes(node interface{}) int {
	switch v := node.(type) {
	case Document:
		n := 1
		for _, child := range v {
			n += countNodes(child)
		}
		return n
	case []interface{}:
		n := 1
		for _, item := range v {
			n += countNodes(item)
		}
		return n
	default:
		return 1
	}
}
