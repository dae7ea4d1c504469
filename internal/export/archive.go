/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns a template and its data rows into print artifacts:
// a zip with one PNG per row, print sheets as PNG zip or PDF.
package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"ticketforge/internal/domain"
	applog "ticketforge/internal/log"
	"ticketforge/internal/render"
)

// DefaultYieldEvery is the number of rows rendered between yields.
const DefaultYieldEvery = 8

// maxNameLen caps the sanitized part of an entry name.
const maxNameLen = 50

// ErrNoRows is returned for a job without data rows.
var ErrNoRows = errors.New("no data rows to export")

// Progress is called after each row with the number of finished rows.
type Progress func(done, total int)

// Job is one batch export.
type Job struct {
	Template *domain.TicketTemplate
	// Headers orders the columns; the first one names the archive entries.
	Headers []string
	Rows    []map[string]string
	// Renderer defaults to a 300 DPI renderer without background source.
	Renderer *render.Renderer
	// YieldEvery defaults to DefaultYieldEvery.
	YieldEvery int
}

func (j *Job) renderer() *render.Renderer {
	if j.Renderer == nil {
		j.Renderer = render.New(render.Options{})
	}
	return j.Renderer
}

func (j *Job) chunk() int {
	if j.YieldEvery <= 0 {
		return DefaultYieldEvery
	}
	return j.YieldEvery
}

// RowError reports the row a batch stopped at.
type RowError struct {
	Index int // zero-based
	Err   error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Index+1, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// Result lists the archive entries in row order.
type Result struct {
	Entries []string
}

// EntryName builds the file name for row index from value: characters
// outside [A-Za-z0-9_-] become '_' and the name is capped at 50 characters.
// An empty value yields ticket_<index+1>.
func EntryName(value string, index int) string {
	if value == "" {
		return "ticket_" + strconv.Itoa(index+1) + ".png"
	}
	var b strings.Builder
	for _, r := range value {
		if r < 0x80 && (r == '_' || r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		if b.Len() >= maxNameLen {
			break
		}
	}
	return b.String() + ".png"
}

// uniqueNames suffixes repeated names with _2, _3 and so on.
type uniqueNames map[string]int

func (u uniqueNames) take(name string) string {
	base := strings.TrimSuffix(name, ".png")
	n := u[name]
	u[name] = n + 1
	if n == 0 {
		return name
	}
	for {
		cand := base + "_" + strconv.Itoa(n+1) + ".png"
		if _, used := u[cand]; !used {
			u[cand] = 1
			return cand
		}
		n++
	}
}

// yield gives other goroutines a turn and reports cancellation.
func yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// Archive renders every row in order and writes one PNG per row into a zip
// on w. The zip is finalized only when all rows succeeded; a failing row
// aborts with a *RowError. Cancellation is checked between chunks.
func Archive(ctx context.Context, job Job, w io.Writer, progress Progress) (Result, error) {
	var res Result
	if job.Template == nil {
		return res, fmt.Errorf("archive: template is nil")
	}
	if len(job.Rows) == 0 {
		return res, ErrNoRows
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	lg := applog.WithOperation(applog.WithComponent("export"), "archive")
	r := job.renderer()
	chunk := job.chunk()
	names := uniqueNames{}
	zw := zip.NewWriter(w)
	total := len(job.Rows)

	for i, row := range job.Rows {
		img, err := r.RenderRow(job.Template, row)
		if err != nil {
			lg.Error("render failed", slog.Int("row", i+1), slog.Any("err", err))
			return res, &RowError{Index: i, Err: err}
		}
		first := ""
		if len(job.Headers) > 0 {
			first = row[job.Headers[0]]
		}
		name := names.take(EntryName(first, i))
		fw, err := zw.Create(name)
		if err != nil {
			return res, &RowError{Index: i, Err: fmt.Errorf("zip entry: %w", err)}
		}
		if err := png.Encode(fw, img); err != nil {
			return res, &RowError{Index: i, Err: fmt.Errorf("encode png: %w", err)}
		}
		res.Entries = append(res.Entries, name)
		if progress != nil {
			progress(i+1, total)
		}
		if (i+1)%chunk == 0 && i+1 < total {
			if err := yield(ctx); err != nil {
				lg.Warn("export cancelled", slog.Int("done", i+1), slog.Int("total", total))
				return res, err
			}
		}
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("finalize zip: %w", err)
	}
	lg.Info("archive written", slog.Int("rows", total))
	return res, nil
}

// ArchiveFile writes the archive to path, creating parent directories.
// A partial file is removed on failure.
func ArchiveFile(ctx context.Context, job Job, path string, progress Progress) (Result, error) {
	return writeFile(path, func(w io.Writer) (Result, error) { return Archive(ctx, job, w, progress) })
}

func writeFile(path string, fn func(io.Writer) (Result, error)) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	res, err := fn(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return res, err
	}
	return res, nil
}
