/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "math"

// VAlign selects where a text block sits inside its box.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignCenter VAlign = "center"
	VAlignBottom VAlign = "bottom"
)

// VerticalY returns the top of a content block of height contentH inside a
// box at boxY with height boxH. Unknown alignments behave like top. The line
// count is accepted for callers that align per line and does not change the
// result.
func VerticalY(boxY, boxH, contentH float64, _ int, align VAlign) float64 {
	switch align {
	case VAlignCenter:
		return boxY + (boxH-contentH)/2
	case VAlignBottom:
		return boxY + boxH - contentH
	default:
		return boxY
	}
}

// MinFitSizePt is the smallest size auto-fit shrinks to.
const MinFitSizePt = 6

// MaxFitSizePt caps the starting size; larger sizes, +Inf included, start here.
const MaxFitSizePt = 1000

// FitStep is the smallest amount the font size drops per auto-fit iteration.
// Large sizes shrink by fitShrink instead so the loop stays short.
const FitStep = 0.5

const (
	fitShrink     = 0.9
	maxFitPasses  = 256
	defaultSizePt = 12
)

// FitOptions control Fit.
type FitOptions struct {
	Font FontSpec
	// Width and Height of the box in pixels.
	Width, Height float32
	// Contain shrinks the font until the wrapped text fits the box.
	Contain bool
	// MinSizePt overrides MinFitSizePt when positive.
	MinSizePt float32
}

// FitResult is the laid out text and the font it was laid out with.
type FitResult struct {
	Box  TextBox
	Font FontSpec
	// Overflow is set when the text still exceeds the box at the final size.
	Overflow bool
}

// Fit word-wraps text into the box. With Contain set, the font size is reduced
// step-wise until the block fits both dimensions or the floor is reached.
func Fit(text string, p Provider, opt FitOptions) FitResult {
	l := NewWordWrap(p)
	floor := opt.MinSizePt
	if floor <= 0 {
		floor = MinFitSizePt
	}
	spec := opt.Font
	spec.SizePt = StartSize(spec.SizePt)
	for pass := 0; ; pass++ {
		box, _ := l.Layout([]Span{{Text: text, Font: spec}}, opt.Width)
		over := overflows(box, opt.Width, opt.Height)
		if !opt.Contain || !over || spec.SizePt <= floor || pass >= maxFitPasses {
			return FitResult{Box: box, Font: spec, Overflow: over}
		}
		spec.SizePt = max(floor, min(spec.SizePt-FitStep, spec.SizePt*fitShrink))
	}
}

// StartSize is the size Fit begins with. NaN and non-positive sizes become
// 12 pt; sizes above MaxFitSizePt are capped.
func StartSize(pt float32) float32 {
	f := float64(pt)
	switch {
	case math.IsNaN(f) || f <= 0:
		return defaultSizePt
	case f > MaxFitSizePt:
		return MaxFitSizePt
	}
	return pt
}

func overflows(b TextBox, w, h float32) bool {
	if h > 0 && b.Height > h {
		return true
	}
	return w > 0 && b.Width > w
}
