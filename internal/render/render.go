/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render draws a ticket template filled with one data row into a
// raster image at physical size.
package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"ticketforge/internal/domain"
	"ticketforge/internal/geom"
	"ticketforge/internal/label"
	applog "ticketforge/internal/log"
	"ticketforge/internal/textlayout"
)

// DefaultDPI is the output resolution used when Options.DPI is zero.
const DefaultDPI = 300

// captionPt is the size of the value printed under 1-D barcodes.
const captionPt = 9

// Options configure a Renderer.
type Options struct {
	DPI    float64
	Fonts  *textlayout.FontLibrary
	Images ImageSource
}

// Renderer rasterizes tickets. A Renderer caches font faces and must not be
// used from several goroutines at once.
type Renderer struct {
	dpi    float64
	pxmm   float64
	fonts  *textlayout.OTProvider
	images ImageSource
	log    *slog.Logger

	bgRef string
	bgImg image.Image
}

func New(opts Options) *Renderer {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	lib := opts.Fonts
	if lib == nil {
		lib = textlayout.DefaultLibrary()
	}
	p := textlayout.NewOTProvider(lib, dpi)
	p.Fallback = textlayout.BasicProvider{}
	return &Renderer{
		dpi:    dpi,
		pxmm:   geom.MMToPixels(1, dpi),
		fonts:  p,
		images: opts.Images,
		log:    applog.WithComponent("render"),
	}
}

func (r *Renderer) DPI() float64 { return r.dpi }

// PixelsPerMM is the output scale.
func (r *Renderer) PixelsPerMM() float64 { return r.pxmm }

// Size returns the pixel size of a ticket with settings s.
func (r *Renderer) Size(s domain.TicketSettings) (w, h int) {
	w = max(1, int(math.Round(s.Width*r.pxmm)))
	h = max(1, int(math.Round(s.Height*r.pxmm)))
	return w, h
}

// RenderRow resolves the label block from the template and renders row.
func (r *Renderer) RenderRow(tpl *domain.TicketTemplate, row map[string]string) (*image.RGBA, error) {
	return r.Render(tpl, row, label.Resolve(row, tpl.Labels()))
}

// Render draws tpl for row: white base, background, label blocks, then the
// elements in order. blk may be nil.
func (r *Renderer) Render(tpl *domain.TicketTemplate, row map[string]string, blk *label.Block) (*image.RGBA, error) {
	w, h := r.Size(tpl.TicketSettings)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(color.White)
	dc.Clear()

	if tpl.BackgroundImage != nil && *tpl.BackgroundImage != "" {
		bg, err := r.background(*tpl.BackgroundImage)
		if err != nil {
			return nil, err
		}
		drawBackground(dst, bg, tpl.TicketSettings.FitMode)
	}

	if blk != nil {
		r.drawLabel(dc, blk, float64(w), float64(h))
	}

	for i, el := range tpl.Elements {
		var err error
		switch e := el.(type) {
		case *domain.TextElement:
			r.drawText(dc, e, row)
		case *domain.CodeElement:
			err = r.drawCode(dc, e, row)
		}
		if err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, el.Common().ID, err)
		}
	}
	return dst, nil
}

// background loads ref once and reuses it for following rows.
func (r *Renderer) background(ref string) (image.Image, error) {
	if r.bgImg != nil && r.bgRef == ref {
		return r.bgImg, nil
	}
	if r.images == nil {
		return nil, ErrNoImageSource
	}
	img, err := r.images.Open(ref)
	if err != nil {
		return nil, err
	}
	r.bgRef, r.bgImg = ref, img
	r.log.Debug("background loaded", slog.Int("w", img.Bounds().Dx()), slog.Int("h", img.Bounds().Dy()))
	return img, nil
}

func (r *Renderer) drawLabel(dc *gg.Context, blk *label.Block, w, h float64) {
	dc.SetColor(ParseHex(blk.Color, ParseHex(label.FallbackColor, color.Gray{Y: 0xcc})))
	if bw := blk.Width * r.pxmm; bw > 0 {
		dc.DrawRectangle(blk.Left*r.pxmm, 0, bw, h)
		dc.Fill()
	}
	if blk.RightEnabled && blk.RightWidth > 0 {
		rw := blk.RightWidth * r.pxmm
		dc.DrawRectangle(w-rw, 0, rw, h)
		dc.Fill()
	}
}

// frame moves the origin to the element's top-left corner, rotated about the
// element center, and clips to the box when asked to. The returned func
// undoes both.
func (r *Renderer) frame(dc *gg.Context, b *domain.Base, clip bool) (w, h float64, done func()) {
	x, y := b.Position.X*r.pxmm, b.Position.Y*r.pxmm
	w, h = b.Size.Width*r.pxmm, b.Size.Height*r.pxmm
	dc.Push()
	if b.Rotation != 0 {
		dc.RotateAbout(gg.Radians(b.Rotation), x+w/2, y+h/2)
	}
	dc.Translate(x, y)
	if clip {
		dc.DrawRectangle(0, 0, w, h)
		dc.Clip()
	}
	return w, h, func() {
		if clip {
			dc.ResetClip()
		}
		dc.Pop()
	}
}

func (r *Renderer) drawText(dc *gg.Context, e *domain.TextElement, row map[string]string) {
	text := textlayout.Format(e.TextFormat, row)
	if text == "" {
		return
	}
	w, h, done := r.frame(dc, &e.Base, e.ContainInBox)
	defer done()

	res := textlayout.Fit(text, r.fonts, textlayout.FitOptions{
		Font: textlayout.FontSpec{
			Family: e.Styles.FontFamily,
			SizePt: float32(e.Styles.FontSize),
			Weight: FontWeight(e.Styles.FontWeight),
		},
		Width:   float32(w),
		Height:  float32(h),
		Contain: e.ContainInBox,
	})
	face, met := r.fonts.Resolve(res.Font)
	dc.SetFontFace(face)
	dc.SetColor(ParseHex(e.Styles.Color, color.Black))

	lh := float64(met.LineHeight())
	top := textlayout.VerticalY(0, h, float64(res.Box.Height), len(res.Box.Lines), textlayout.VAlign(e.Styles.VerticalAlign))
	for i, ln := range res.Box.Lines {
		lx := 0.0
		switch e.Styles.Align {
		case domain.AlignCenter:
			lx = (w - float64(ln.Width)) / 2
		case domain.AlignRight:
			lx = w - float64(ln.Width)
		}
		dc.DrawString(ln.Text(), lx, top+float64(i)*lh+float64(met.Ascent))
	}
}

func (r *Renderer) drawCode(dc *gg.Context, e *domain.CodeElement, row map[string]string) error {
	value := textlayout.Format(e.Placeholder, row)
	if value == "" {
		return nil
	}
	bc, used, err := Encode(e.CodeSettings.CodeType, value)
	if err != nil {
		return err
	}
	if used != e.CodeSettings.CodeType {
		r.log.Debug("code fallback", slog.String("from", string(e.CodeSettings.CodeType)), slog.String("to", string(used)))
	}
	w, h, done := r.frame(dc, &e.Base, false)
	defer done()

	fg := ParseHex(e.CodeSettings.Foreground, color.Black)
	bg := ParseHex(e.CodeSettings.Background, color.White)
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	if used == domain.CodeQR {
		side := min(w, h)
		sym := Symbol(bc, int(side), int(side), fg, bg)
		dc.DrawImage(sym, int((w-side)/2), int((h-side)/2))
		return nil
	}

	barH := h
	face := r.captionFace()
	var capH float64
	if e.CodeSettings.ShowValue {
		m := face.Metrics()
		capH = float64((m.Ascent + m.Descent).Ceil())
		barH = max(1, h-capH)
	}
	dc.DrawImage(Symbol(bc, int(w), int(barH), fg, bg), 0, 0)
	if e.CodeSettings.ShowValue {
		dc.SetFontFace(face)
		dc.SetColor(fg)
		dc.DrawStringAnchored(value, w/2, barH+capH/2, 0.5, 0.5)
	}
	return nil
}

func (r *Renderer) captionFace() font.Face {
	f, _ := r.fonts.Resolve(textlayout.FontSpec{SizePt: captionPt, Weight: 400})
	return f
}

// FontWeight maps CSS style weights to numeric ones.
func FontWeight(s string) int {
	switch s {
	case "", "normal":
		return 400
	case "bold", "bolder":
		return 700
	case "lighter":
		return 300
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 100 && n <= 900 {
		return n
	}
	return 400
}
