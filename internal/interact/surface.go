/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact implements the pointer gestures of the ticket canvas:
// drag to move, resize from the corner handle and rotate from the top handle.
//
// Controllers are state machines (idle, active) that attach global listeners
// to a Surface on press and detach them on release or cancel. They never
// return errors; out-of-range input is clamped.
package interact

import (
	"slices"
	"sync"

	"ticketforge/internal/geom"
)

// HandleKind says what part of an element a press landed on.
type HandleKind int

const (
	HandleNone   HandleKind = iota // element body
	HandleResize                   // bottom-right resize handle
	HandleRotate                   // rotation knob
)

// PointerEvent is a pointer position in screen pixels.
type PointerEvent struct {
	X, Y   float64
	Shift  bool
	Target HandleKind
}

func (e PointerEvent) Pt() geom.Pt { return geom.Pt{X: e.X, Y: e.Y} }

// Listener receives pointer events while a gesture is active.
type Listener interface {
	PointerMove(PointerEvent)
	PointerUp(PointerEvent)
}

// Canceler is implemented by listeners that can abort a gesture, e.g. when
// the window loses focus.
type Canceler interface {
	Cancel()
}

// Surface is where global gesture listeners are registered.
type Surface interface {
	Attach(Listener)
	Detach(Listener)
}

// Viewport is a Surface that fans pointer events out to attached listeners.
// UI toolkits feed it with their move/release events.
type Viewport struct {
	mu        sync.Mutex
	listeners []Listener
}

func (v *Viewport) Attach(l Listener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !slices.Contains(v.listeners, l) {
		v.listeners = append(v.listeners, l)
	}
}

func (v *Viewport) Detach(l Listener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = slices.DeleteFunc(v.listeners, func(x Listener) bool { return x == l })
}

// ListenerCount reports how many listeners are attached.
func (v *Viewport) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

func (v *Viewport) snapshot() []Listener {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.listeners)
}

// DispatchMove forwards a move to every attached listener.
func (v *Viewport) DispatchMove(e PointerEvent) {
	for _, l := range v.snapshot() {
		l.PointerMove(e)
	}
}

// DispatchUp forwards a release to every attached listener.
func (v *Viewport) DispatchUp(e PointerEvent) {
	for _, l := range v.snapshot() {
		l.PointerUp(e)
	}
}

// Blur cancels every active gesture.
func (v *Viewport) Blur() {
	for _, l := range v.snapshot() {
		if c, ok := l.(Canceler); ok {
			c.Cancel()
		} else {
			v.Detach(l)
		}
	}
}

// View maps between screen pixels and canvas millimeters.
type View struct {
	// Zoom is screen pixels per millimeter.
	Zoom float64
	// Origin is the screen position of the canvas top-left corner.
	Origin geom.Pt
}

func (v View) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

func (v View) ToScreen(p geom.Pt) geom.Pt {
	z := v.zoom()
	return geom.Pt{X: v.Origin.X + p.X*z, Y: v.Origin.Y + p.Y*z}
}

func (v View) ToCanvas(p geom.Pt) geom.Pt {
	return geom.Pt{X: geom.ZoomDelta(p.X-v.Origin.X, v.Zoom), Y: geom.ZoomDelta(p.Y-v.Origin.Y, v.Zoom)}
}
