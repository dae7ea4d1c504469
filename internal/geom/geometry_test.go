/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want float64 }{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{math.NaN(), 5, 80, 5},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%v,%v,%v)=%v want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestZoomDelta(t *testing.T) {
	if got := ZoomDelta(50, 2); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	if got := ZoomDelta(50, 0); got != 50 {
		t.Fatalf("zero zoom should be treated as 1, got %v", got)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, -90: 270, 450: 90, -720: 0, 359.5: 359.5}
	for in, want := range cases {
		if got := NormalizeDegrees(in); got != want {
			t.Fatalf("NormalizeDegrees(%v)=%v want %v", in, got, want)
		}
	}
}

func TestPointerAngle(t *testing.T) {
	c := Pt{X: 100, Y: 100}
	// Straight up is 0 degrees.
	if got := PointerAngle(Pt{X: 100, Y: 0}, c, false); math.Abs(got) > 1e-9 {
		t.Fatalf("up: got %v", got)
	}
	// Right is 90, down is 180, left is 270.
	if got := PointerAngle(Pt{X: 200, Y: 100}, c, false); math.Abs(got-90) > 1e-9 {
		t.Fatalf("right: got %v", got)
	}
	if got := PointerAngle(Pt{X: 100, Y: 200}, c, false); math.Abs(got-180) > 1e-9 {
		t.Fatalf("down: got %v", got)
	}
	if got := PointerAngle(Pt{X: 0, Y: 100}, c, false); math.Abs(got-270) > 1e-9 {
		t.Fatalf("left: got %v", got)
	}
	// 30 degrees off vertical snaps to 45.
	p := Pt{X: 100 + math.Sin(30*math.Pi/180)*50, Y: 100 - math.Cos(30*math.Pi/180)*50}
	if got := PointerAngle(p, c, true); got != 45 {
		t.Fatalf("snap: got %v", got)
	}
}

func TestRotateAboutQuarterTurn(t *testing.T) {
	p := RotateAbout(Pt{X: 10, Y: 0}, Pt{}, 90)
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y-10) > 1e-9 {
		t.Fatalf("unexpected rotation result %+v", p)
	}
}

func TestMMToPixels(t *testing.T) {
	if got := MMToPixels(25.4, 300); got != 300 {
		t.Fatalf("expected 300px, got %v", got)
	}
	if got := Round(PixelsToMM(300, 300), 3); got != 25.4 {
		t.Fatalf("expected 25.4mm, got %v", got)
	}
}
