/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"math"
	"slices"
	"testing"
	"time"
)

func TestWordWrap_Naive(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, err := l.Layout([]Span{{Text: "Hello world from Go"}}, 50)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(box.Lines))
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
	for _, ln := range box.Lines {
		if ln.Text() == "" {
			t.Fatalf("unexpected empty line in %+v", box.Lines)
		}
	}
}

func TestWordWrap_NewlinesAndWideWords(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, _ := l.Layout([]Span{{Text: "A\nB"}}, 0)
	if len(box.Lines) != 2 || box.Lines[1].Text() != "B" {
		t.Fatalf("newline not honored: %+v", box.Lines)
	}
	// 7px per glyph: a 10 glyph word never fits 20px but stays whole.
	box, _ = l.Layout([]Span{{Text: "abcdefghij x"}}, 20)
	if box.Lines[0].Text() != "abcdefghij" || len(box.Lines) != 2 {
		t.Fatalf("wide word handling: %+v", box.Lines)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, []Span{{Text: "ABC"}})
	w2, h2 := Measure(BasicProvider{}, []Span{{Text: "A"}, {Text: "BC"}})
	if w1 != w2 || h1 != h2 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
	if w1 != 21 {
		t.Fatalf("expected 21px for three 7px glyphs, got %v", w1)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		tpl  string
		row  map[string]string
		want string
	}{
		{"{Name}", map[string]string{"Name": "Alice"}, "Alice"},
		{"{First} {Last}", map[string]string{"First": "A", "Last": "B"}, "A B"},
		{"{Missing}", map[string]string{"Name": "Alice"}, "{Missing}"},
		{"hello world", map[string]string{"Name": "Alice"}, "hello world"},
		{"{Name}", map[string]string{}, "{Name}"},
		{"{A}", map[string]string{"A": "{B}", "B": "x"}, "{B}"},
		{"Hi {First Name}!", map[string]string{"First Name": "Ada"}, "Hi Ada!"},
	}
	for _, c := range cases {
		if got := Format(c.tpl, c.row); got != c.want {
			t.Fatalf("Format(%q)=%q want %q", c.tpl, got, c.want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders("{ID}-{Name}-{ID}"); !slices.Equal(got, []string{"ID", "Name", "ID"}) {
		t.Fatalf("placeholders = %v", got)
	}
}

func TestVerticalY(t *testing.T) {
	if got := VerticalY(100, 200, 60, 1, VAlignTop); got != 100 {
		t.Fatalf("top = %v", got)
	}
	if got := VerticalY(100, 200, 60, 1, VAlignCenter); got != 170 {
		t.Fatalf("center = %v", got)
	}
	if got := VerticalY(100, 200, 60, 1, VAlignBottom); got != 240 {
		t.Fatalf("bottom = %v", got)
	}
}

func TestFitShrinksToFloor(t *testing.T) {
	p := NewOTProvider(DefaultLibrary(), 72)
	text := "a rather long line of text that cannot fit"
	res := Fit(text, p, FitOptions{Font: FontSpec{SizePt: 40}, Width: 60, Height: 10, Contain: true})
	if res.Font.SizePt != MinFitSizePt || !res.Overflow {
		t.Fatalf("expected floor with overflow, got %v overflow=%v", res.Font.SizePt, res.Overflow)
	}
	res = Fit("Hi", p, FitOptions{Font: FontSpec{SizePt: 40}, Width: 400, Height: 200, Contain: true})
	if res.Font.SizePt != 40 || res.Overflow {
		t.Fatalf("fitting text should keep its size, got %v", res.Font.SizePt)
	}
	res = Fit("Hello there", p, FitOptions{Font: FontSpec{SizePt: 40}, Width: 120, Height: 50, Contain: true})
	if res.Font.SizePt >= 40 || res.Overflow {
		t.Fatalf("expected shrink without overflow, got %v overflow=%v", res.Font.SizePt, res.Overflow)
	}
	res = Fit(text, p, FitOptions{Font: FontSpec{SizePt: 40}, Width: 60, Height: 10})
	if res.Font.SizePt != 40 {
		t.Fatalf("without contain the size must not change")
	}
}

func TestFitHugeAndNonFiniteSizesTerminate(t *testing.T) {
	text := "a long line of ticket text"
	for _, size := range []float32{2e7, float32(math.Inf(1)), float32(math.NaN()), 999} {
		done := make(chan FitResult, 1)
		go func() {
			done <- Fit(text, BasicProvider{}, FitOptions{Font: FontSpec{SizePt: size}, Width: 20, Height: 5, Contain: true})
		}()
		select {
		case res := <-done:
			if res.Font.SizePt != MinFitSizePt {
				t.Fatalf("size %v: expected floor, got %v", size, res.Font.SizePt)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("size %v: Fit did not return", size)
		}
	}
}

func TestStartSize(t *testing.T) {
	cases := []struct {
		in, want float32
	}{
		{0, 12},
		{-4, 12},
		{float32(math.NaN()), 12},
		{float32(math.Inf(1)), MaxFitSizePt},
		{2e7, MaxFitSizePt},
		{16, 16},
	}
	for _, c := range cases {
		if got := StartSize(c.in); got != c.want {
			t.Fatalf("StartSize(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOTProviderFallsBackToDefaultFamily(t *testing.T) {
	p := NewOTProvider(DefaultLibrary(), 96)
	_, m1 := p.Resolve(FontSpec{Family: "Nope", SizePt: 12})
	_, m2 := p.Resolve(FontSpec{SizePt: 12})
	if m1 != m2 || m1.Ascent <= 0 {
		t.Fatalf("unknown family should resolve to default: %+v vs %+v", m1, m2)
	}
	if DefaultLibrary().Len() != 4 {
		t.Fatalf("expected 4 default faces, got %d", DefaultLibrary().Len())
	}
}
