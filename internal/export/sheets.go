/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	applog "ticketforge/internal/log"
	"ticketforge/internal/printlayout"
)

// SheetOptions control print sheet output.
type SheetOptions struct {
	// CutLines draws dashed guides through the gaps.
	CutLines bool
	// CutColor defaults to mid gray.
	CutColor color.Color
}

// Sheet is one rendered page.
type Sheet struct {
	Index  int // zero-based page number
	Layout printlayout.Layout
	Image  *image.RGBA
}

// RenderSheets tiles the rendered rows onto A4 pages and calls emit once per
// finished page. Progress counts tickets, not pages.
func RenderSheets(ctx context.Context, job Job, opt SheetOptions, emit func(Sheet) error, progress Progress) (printlayout.Layout, error) {
	if job.Template == nil {
		return printlayout.Layout{}, fmt.Errorf("sheets: template is nil")
	}
	if len(job.Rows) == 0 {
		return printlayout.Layout{}, ErrNoRows
	}
	if err := ctx.Err(); err != nil {
		return printlayout.Layout{}, err
	}
	lg := applog.WithOperation(applog.WithComponent("export"), "sheets")
	r := job.renderer()
	ts := job.Template.TicketSettings
	gap := job.Template.Gap()
	l := printlayout.Calculate(ts.Width, ts.Height, gap, ts.Type, len(job.Rows))
	pxmm := r.PixelsPerMM()
	px := func(mm float64) int { return int(math.Round(mm * pxmm)) }
	cutColor := opt.CutColor
	if cutColor == nil {
		cutColor = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	}

	newPage := func() *image.RGBA {
		pg := image.NewRGBA(image.Rect(0, 0, px(l.PageWidth), px(l.PageHeight)))
		fillRect(pg, pg.Bounds(), color.White)
		if opt.CutLines {
			drawCutLines(pg, l, ts.Width, ts.Height, gap, pxmm, cutColor)
		}
		return pg
	}

	chunk := job.chunk()
	total := len(job.Rows)
	var page *image.RGBA
	pageNo := -1
	for i, row := range job.Rows {
		cell := printlayout.CellAt(l, ts.Width, ts.Height, gap, i)
		if cell.Page != pageNo {
			if page != nil {
				if err := emit(Sheet{Index: pageNo, Layout: l, Image: page}); err != nil {
					return l, err
				}
			}
			page, pageNo = newPage(), cell.Page
		}
		img, err := r.RenderRow(job.Template, row)
		if err != nil {
			lg.Error("render failed", slog.Int("row", i+1), slog.Any("err", err))
			return l, &RowError{Index: i, Err: err}
		}
		x0, y0 := l.Place(cell.X), l.Place(cell.Y)
		dst := image.Rect(px(x0), px(y0), px(x0+ts.Width*l.Scale), px(y0+ts.Height*l.Scale))
		draw.CatmullRom.Scale(page, dst, img, img.Bounds(), draw.Src, nil)
		if progress != nil {
			progress(i+1, total)
		}
		if (i+1)%chunk == 0 && i+1 < total {
			if err := yield(ctx); err != nil {
				return l, err
			}
		}
	}
	if page != nil {
		if err := emit(Sheet{Index: pageNo, Layout: l, Image: page}); err != nil {
			return l, err
		}
	}
	lg.Info("sheets rendered", slog.Int("tickets", total), slog.Int("pages", l.TotalPages), slog.String("orientation", string(l.Orientation)))
	return l, nil
}

// SheetName is the zip entry name of page index.
func SheetName(index int) string { return fmt.Sprintf("sheet_%03d.png", index+1) }

// SheetsZip writes the print sheets as PNG files into a zip on w.
func SheetsZip(ctx context.Context, job Job, opt SheetOptions, w io.Writer, progress Progress) (Result, error) {
	sink := newZipSink(w)
	err := renderToSinks(ctx, job, opt, progress, sink)
	return sink.res, err
}

// SheetsZipFile writes SheetsZip output to path.
func SheetsZipFile(ctx context.Context, job Job, opt SheetOptions, path string, progress Progress) (Result, error) {
	return writeFile(path, func(w io.Writer) (Result, error) { return SheetsZip(ctx, job, opt, w, progress) })
}

// sheetSink receives every rendered page and is finished once all pages
// are in.
type sheetSink interface {
	add(Sheet) error
	finish() error
}

// renderToSinks renders the sheets once and hands each page to every sink.
func renderToSinks(ctx context.Context, job Job, opt SheetOptions, progress Progress, sinks ...sheetSink) error {
	_, err := RenderSheets(ctx, job, opt, func(s Sheet) error {
		for _, k := range sinks {
			if err := k.add(s); err != nil {
				return err
			}
		}
		return nil
	}, progress)
	if err != nil {
		return err
	}
	for _, k := range sinks {
		if err := k.finish(); err != nil {
			return err
		}
	}
	return nil
}

type zipSink struct {
	zw  *zip.Writer
	res Result
}

func newZipSink(w io.Writer) *zipSink { return &zipSink{zw: zip.NewWriter(w)} }

func (z *zipSink) add(s Sheet) error {
	name := SheetName(s.Index)
	fw, err := z.zw.Create(name)
	if err != nil {
		return fmt.Errorf("zip entry: %w", err)
	}
	if err := png.Encode(fw, s.Image); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	z.res.Entries = append(z.res.Entries, name)
	return nil
}

func (z *zipSink) finish() error {
	if err := z.zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

// sheetTarget is one file BatchExport fills from the shared sheet pass.
type sheetTarget struct {
	format string
	path   string
}

// writeSheetFiles renders the sheets once into every target file. On error
// the files already created are removed.
func writeSheetFiles(ctx context.Context, job Job, opt SheetOptions, targets []sheetTarget, progress Progress) error {
	var (
		files []*os.File
		sinks []sheetSink
		err   error
	)
	for _, t := range targets {
		if err = os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
			err = fmt.Errorf("ensure out dir: %w", err)
			break
		}
		var f *os.File
		if f, err = os.Create(t.path); err != nil {
			err = fmt.Errorf("create %s: %w", filepath.Base(t.path), err)
			break
		}
		files = append(files, f)
		if t.format == FormatPDF {
			sinks = append(sinks, newPDFSink(f, job.Template.Name))
		} else {
			sinks = append(sinks, newZipSink(f))
		}
	}
	if err == nil {
		err = renderToSinks(ctx, job, opt, progress, sinks...)
	}
	for i, f := range files {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(targets[i].path), cerr)
		}
	}
	if err != nil {
		for _, t := range targets[:len(files)] {
			_ = os.Remove(t.path)
		}
	}
	return err
}

// drawCutLines draws dashed guides across the page at the scaled cut
// positions.
func drawCutLines(img *image.RGBA, l printlayout.Layout, w, h, gap, pxmm float64, c color.Color) {
	cuts := printlayout.CutLinePositions(w, h, gap, l)
	b := img.Bounds()
	dash := max(2, int(2*pxmm))
	for _, x := range cuts.Vertical {
		px := int(math.Round(l.Place(x) * pxmm))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if (y/dash)%2 == 0 {
				setIn(img, px, y, c)
			}
		}
	}
	for _, y := range cuts.Horizontal {
		py := int(math.Round(l.Place(y) * pxmm))
		for x := b.Min.X; x < b.Max.X; x++ {
			if (x/dash)%2 == 0 {
				setIn(img, x, py, c)
			}
		}
	}
}

func setIn(img *image.RGBA, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
