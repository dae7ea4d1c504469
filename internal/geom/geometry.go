/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Shared math for the canvas: clamping, zoom-scaled pointer deltas, rotation
// angles and millimeter/pixel conversion. All values are float64; physical
// quantities are millimeters unless a name says otherwise.

import "math"

// MMPerInch is the number of millimeters in one inch.
const MMPerInch = 25.4

// Zoom bounds used by the editor canvas.
const (
	MinZoom  = 0.25
	MaxZoom  = 3.0
	ZoomStep = 0.25
)

// SnapStep is the rotation snap increment in degrees.
const SnapStep = 45.0

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Rect is an axis-aligned rectangle defined by its top-left corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Center() Pt { return Pt{X: r.X + r.W/2, Y: r.Y + r.H/2} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Scale multiplies every component by s.
func (r Rect) Scale(s float64) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}
}

// Clamp limits v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ZoomDelta converts a pointer delta in screen pixels to canvas units.
// A non-positive zoom is treated as 1.
func ZoomDelta(clientDelta, zoom float64) float64 {
	if zoom <= 0 || math.IsNaN(zoom) {
		zoom = 1
	}
	return clientDelta / zoom
}

// ClampZoom keeps a zoom factor inside [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 { return Clamp(z, MinZoom, MaxZoom) }

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	n := math.Mod(math.Mod(deg, 360)+360, 360)
	if n == 360 {
		return 0
	}
	return n
}

// SnapDegrees rounds deg to the nearest multiple of step.
func SnapDegrees(deg, step float64) float64 {
	if step <= 0 {
		return deg
	}
	return math.Round(deg/step) * step
}

// PointerAngle returns the rotation in degrees that points an element's "up"
// direction from center towards pointer. 0 means the pointer is straight above
// the center. With snap set the result is rounded to SnapStep.
func PointerAngle(pointer, center Pt, snap bool) float64 {
	rad := math.Atan2(pointer.Y-center.Y, pointer.X-center.X)
	deg := rad*180/math.Pi + 90
	if snap {
		deg = SnapDegrees(deg, SnapStep)
	}
	return NormalizeDegrees(deg)
}

// RotateAbout rotates p around c by deg degrees (clockwise in screen space).
func RotateAbout(p, c Pt, deg float64) Pt {
	rad := deg * math.Pi / 180
	s, co := math.Sin(rad), math.Cos(rad)
	dx, dy := p.X-c.X, p.Y-c.Y
	return Pt{X: c.X + dx*co - dy*s, Y: c.Y + dx*s + dy*co}
}

// MMToPixels converts millimeters to device pixels at dpi.
func MMToPixels(mm, dpi float64) float64 { return mm / MMPerInch * dpi }

// PixelsToMM converts device pixels at dpi back to millimeters.
func PixelsToMM(px, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return px / dpi * MMPerInch
}

// Round rounds v to n decimal places deterministically.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
