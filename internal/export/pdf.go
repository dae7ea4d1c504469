/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"ticketforge/internal/printlayout"
	"ticketforge/internal/version"
)

// SheetsPDF writes the print sheets as an A4 PDF on w. Each page carries the
// sheet as one raster image; nothing is drawn as vectors.
func SheetsPDF(ctx context.Context, job Job, opt SheetOptions, w io.Writer, progress Progress) (Result, error) {
	if job.Template == nil {
		return Result{}, fmt.Errorf("sheets: template is nil")
	}
	sink := newPDFSink(w, job.Template.Name)
	err := renderToSinks(ctx, job, opt, progress, sink)
	return sink.res, err
}

type pdfSink struct {
	w     io.Writer
	title string
	pdf   *gofpdf.Fpdf
	res   Result
}

func newPDFSink(w io.Writer, title string) *pdfSink { return &pdfSink{w: w, title: title} }

func (p *pdfSink) add(s Sheet) error {
	if p.pdf == nil {
		p.pdf = newSheetPDF(s.Layout, p.title)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image); err != nil {
		return fmt.Errorf("encode page %d: %w", s.Index+1, err)
	}
	name := SheetName(s.Index)
	p.pdf.AddPage()
	p.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	p.pdf.ImageOptions(name, 0, 0, s.Layout.PageWidth, s.Layout.PageHeight, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if err := p.pdf.Error(); err != nil {
		return fmt.Errorf("pdf page %d: %w", s.Index+1, err)
	}
	p.res.Entries = append(p.res.Entries, name)
	return nil
}

func (p *pdfSink) finish() error {
	if p.pdf == nil {
		return fmt.Errorf("write pdf: no pages")
	}
	if err := p.pdf.Output(p.w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// SheetsPDFFile writes SheetsPDF output to path.
func SheetsPDFFile(ctx context.Context, job Job, opt SheetOptions, path string, progress Progress) (Result, error) {
	return writeFile(path, func(w io.Writer) (Result, error) { return SheetsPDF(ctx, job, opt, w, progress) })
}

func newSheetPDF(l printlayout.Layout, title string) *gofpdf.Fpdf {
	orient := "P"
	if l.Orientation == printlayout.Landscape {
		orient = "L"
	}
	pdf := gofpdf.New(orient, "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator(version.String(), true)
	return pdf
}
