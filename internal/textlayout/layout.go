/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures, wraps and fits ticket text. All measurement
// goes through a Provider so tests can use a fixed bitmap face while
// rendering uses OpenType faces at the output DPI. Lengths are in pixels.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name, "" selects the default
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the distance between consecutive baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Span is a run of text with the same font.
type Span struct {
	Text string
	Font FontSpec
}

// Line is a single laid out line.
type Line struct {
	Spans   []Span
	Width   float32
	Ascent  float32
	Descent float32
}

// Text joins the spans of the line without trailing spaces.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return strings.TrimRight(b.String(), " ")
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// Layouter performs line-breaking and measurement.
type Layouter interface {
	Layout(spans []Span, maxWidth float32) (TextBox, error)
}

// BasicProvider uses basicfont.Face7x13 regardless of the requested size.
// It keeps tests independent of font files.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// WordWrapLayouter breaks on spaces and explicit newlines. It does no
// shaping or hyphenation; a single word wider than maxWidth gets its own line.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

func (l *WordWrapLayouter) Layout(spans []Span, maxWidth float32) (TextBox, error) {
	p := l.Provider
	if p == nil {
		p = BasicProvider{}
	}
	var spec FontSpec
	if len(spans) > 0 {
		spec = spans[0].Font
	}
	_, met := p.Resolve(spec)
	box := TextBox{Metrics: met}
	cur := Line{Ascent: met.Ascent, Descent: met.Descent}
	// pending holds trailing spaces that only count if another word follows
	var pendingW float32
	var pending []Span

	addLine := func() {
		box.Lines = append(box.Lines, cur)
		if cur.Width > box.Width {
			box.Width = cur.Width
		}
		box.Height += met.LineHeight()
		cur = Line{Ascent: met.Ascent, Descent: met.Descent}
		pending, pendingW = nil, 0
	}

	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		face, _ := p.Resolve(sp.Font)
		d := &font.Drawer{Face: face}
		spaceW := advance(d, " ")
		start := 0
		for i := 0; i <= len(sp.Text); i++ {
			if i < len(sp.Text) && sp.Text[i] != ' ' && sp.Text[i] != '\n' {
				continue
			}
			word := sp.Text[start:i]
			if word != "" {
				w := advance(d, word)
				if cur.Width > 0 && maxWidth > 0 && cur.Width+pendingW+w > maxWidth {
					addLine()
				}
				cur.Spans = append(cur.Spans, pending...)
				cur.Width += pendingW
				pending, pendingW = nil, 0
				cur.Spans = append(cur.Spans, Span{Text: word, Font: sp.Font})
				cur.Width += w
			}
			if i < len(sp.Text) {
				switch sp.Text[i] {
				case ' ':
					if cur.Width > 0 {
						pending = append(pending, Span{Text: " ", Font: sp.Font})
						pendingW += spaceW
					}
				case '\n':
					addLine()
				}
			}
			start = i + 1
		}
	}
	if len(cur.Spans) > 0 || len(box.Lines) == 0 {
		addLine()
	}
	return box, nil
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Measure returns the width and line height of spans laid out on one line.
func Measure(provider Provider, spans []Span) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	var spec FontSpec
	if len(spans) > 0 {
		spec = spans[0].Font
	}
	_, met := provider.Resolve(spec)
	for _, sp := range spans {
		face, _ := provider.Resolve(sp.Font)
		w += advance(&font.Drawer{Face: face}, sp.Text)
	}
	return w, met.Ascent + met.Descent
}
