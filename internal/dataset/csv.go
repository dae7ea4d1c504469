/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dataset ingests spreadsheet exports (CSV) into header/row records
// that templates bind to. Ragged rows are padded or truncated to the header.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrEmptyInput = errors.New("CSV file is empty")
	ErrNoHeaders  = errors.New("no valid headers found in CSV")
	ErrNoDataRows = errors.New("CSV file has headers but no data rows")
)

// FormatError reports why an input could not be ingested.
// It wraps one of ErrEmptyInput, ErrNoHeaders or ErrNoDataRows.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string { return "csv: " + e.Err.Error() }
func (e *FormatError) Unwrap() error { return e.Err }

// Row maps header names to cell values. Every header is present.
type Row map[string]string

// Dataset is the parsed content of one CSV import.
type Dataset struct {
	Headers []string
	Rows    []Row
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// UniqueValues returns the distinct non-empty values of column in order of
// first appearance.
func (d *Dataset) UniqueValues(column string) []string {
	if d == nil || column == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, r := range d.Rows {
		v := r[column]
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{Headers: slices.Clone(d.Headers), Rows: make([]Row, len(d.Rows))}
	for i, r := range d.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// FromRecords builds a dataset from already structured data, e.g. the CSV
// embedded in a stored template. Missing cells are filled with "".
func FromRecords(headers []string, records []map[string]string) *Dataset {
	d := &Dataset{Headers: slices.Clone(headers), Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		r := make(Row, len(headers))
		for _, h := range headers {
			r[h] = rec[h]
		}
		d.Rows = append(d.Rows, r)
	}
	return d
}

// Records returns the rows as plain maps for serialization.
func (d *Dataset) Records() []map[string]string {
	if d == nil {
		return nil
	}
	out := make([]map[string]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = map[string]string(r)
	}
	return out
}

// ParseLine splits one CSV line into trimmed fields. Fields may be quoted
// with double quotes; inside quotes a comma is literal and "" is one quote.
func ParseLine(line string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuote = false
			}
		case inQuote:
			cur.WriteByte(c)
		case c == '"':
			inQuote = true
		case c == ',':
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, strings.TrimSpace(cur.String()))
}

var lineBreak = regexp.MustCompile(`\r?\n`)

type column struct {
	name  string
	index int
}

// Parse turns CSV text into a Dataset. The first non-blank line holds the
// headers; empty header cells are dropped and their columns ignored.
// Rows whose bound cells are all empty are skipped.
func Parse(text string) (*Dataset, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, &FormatError{Err: ErrEmptyInput}
	}

	var cols []column
	seen := map[string]bool{}
	for i, h := range ParseLine(lines[0]) {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		cols = append(cols, column{name: h, index: i})
	}
	if len(cols) == 0 {
		return nil, &FormatError{Err: ErrNoHeaders}
	}

	d := &Dataset{Headers: make([]string, len(cols))}
	for i, c := range cols {
		d.Headers[i] = c.name
	}
	for _, l := range lines[1:] {
		values := ParseLine(l)
		row := make(Row, len(cols))
		hasData := false
		for _, c := range cols {
			v := ""
			if c.index < len(values) {
				v = values[c.index]
			}
			row[c.name] = v
			if v != "" {
				hasData = true
			}
		}
		if hasData {
			d.Rows = append(d.Rows, row)
		}
	}
	if len(d.Rows) == 0 {
		return nil, &FormatError{Err: ErrNoDataRows}
	}
	return d, nil
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader) (*Dataset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Parse(string(b))
}
