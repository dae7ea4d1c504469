/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"math"

	"ticketforge/internal/geom"
)

// Patch is a partial element update. Nil fields are left untouched; fields
// that do not apply to the target variant are ignored.
type Patch struct {
	X, Y          *float64
	Width, Height *float64
	Rotation      *float64
	ContainInBox  *bool

	TextFormat    *string
	FontSize      *float64
	FontWeight    *string
	FontFamily    *string
	Color         *string
	Align         *Align
	VerticalAlign *VerticalAlign

	Placeholder *string
	CodeType    *CodeType
	Foreground  *string
	Background  *string
	ShowValue   *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p == Patch{} }

// Apply merges p into el. Positions and sizes are clamped to >= 0 and
// rotation is normalized into [0,360). NaN clamps to 0; infinite values and
// non-finite font sizes leave the field unchanged.
func (p Patch) Apply(el Element) {
	b := el.Common()
	setNonNeg(&b.Position.X, p.X)
	setNonNeg(&b.Position.Y, p.Y)
	setNonNeg(&b.Size.Width, p.Width)
	setNonNeg(&b.Size.Height, p.Height)
	if p.Rotation != nil {
		b.Rotation = geom.NormalizeDegrees(*p.Rotation)
	}
	if p.ContainInBox != nil {
		b.ContainInBox = *p.ContainInBox
	}
	switch e := el.(type) {
	case *TextElement:
		if p.TextFormat != nil {
			e.TextFormat = *p.TextFormat
		}
		if p.FontSize != nil && *p.FontSize > 0 && !math.IsInf(*p.FontSize, 0) {
			e.Styles.FontSize = *p.FontSize
		}
		if p.FontWeight != nil {
			e.Styles.FontWeight = *p.FontWeight
		}
		if p.FontFamily != nil {
			e.Styles.FontFamily = *p.FontFamily
		}
		if p.Color != nil {
			e.Styles.Color = *p.Color
		}
		if p.Align != nil {
			e.Styles.Align = *p.Align
		}
		if p.VerticalAlign != nil {
			e.Styles.VerticalAlign = *p.VerticalAlign
		}
	case *CodeElement:
		if p.Placeholder != nil {
			e.Placeholder = *p.Placeholder
		}
		if p.CodeType != nil && p.CodeType.Valid() {
			e.CodeSettings.CodeType = *p.CodeType
		}
		if p.Foreground != nil {
			e.CodeSettings.Foreground = *p.Foreground
		}
		if p.Background != nil {
			e.CodeSettings.Background = *p.Background
		}
		if p.ShowValue != nil {
			e.CodeSettings.ShowValue = *p.ShowValue
		}
	}
}

func setNonNeg(dst, v *float64) {
	if v == nil || math.IsInf(*v, 0) {
		return
	}
	*dst = geom.Clamp(*v, 0, math.MaxFloat64)
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }
