/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"ticketforge/internal/geom"
)

// DragOptions configure a Drag. Callbacks may be nil.
type DragOptions struct {
	Zoom     func() float64
	ID       func() string
	Position func() geom.Pt // current top-left in mm
	Disabled bool

	OnStart func(id string)
	OnMove  func(id string, x, y float64)
	OnEnd   func(id string, x, y float64)
}

// Drag moves an element by the zoom-scaled pointer delta. Positions are
// clamped to >= 0.
type Drag struct {
	surface Surface
	opts    DragOptions

	active   bool
	start    geom.Pt
	startPos geom.Pt
}

func NewDrag(s Surface, opts DragOptions) *Drag { return &Drag{surface: s, opts: opts} }

// Update swaps the options, e.g. after the zoom changed.
func (d *Drag) Update(opts DragOptions) { d.opts = opts }

func (d *Drag) Active() bool { return d.active }

// Press starts a drag unless disabled, already active or the press landed on
// a resize or rotate handle.
func (d *Drag) Press(e PointerEvent) bool {
	if d.opts.Disabled || d.active || e.Target != HandleNone {
		return false
	}
	d.active = true
	d.start = e.Pt()
	if d.opts.Position != nil {
		d.startPos = d.opts.Position()
	}
	if d.opts.OnStart != nil {
		d.opts.OnStart(d.id())
	}
	d.surface.Attach(d)
	return true
}

func (d *Drag) PointerMove(e PointerEvent) {
	if !d.active {
		return
	}
	z := zoomOf(d.opts.Zoom)
	x := max(0, d.startPos.X+geom.ZoomDelta(e.X-d.start.X, z))
	y := max(0, d.startPos.Y+geom.ZoomDelta(e.Y-d.start.Y, z))
	if d.opts.OnMove != nil {
		d.opts.OnMove(d.id(), x, y)
	}
}

func (d *Drag) PointerUp(PointerEvent) { d.finish() }

// Cancel ends the gesture as if the pointer was released.
func (d *Drag) Cancel() { d.finish() }

func (d *Drag) finish() {
	d.surface.Detach(d)
	if !d.active {
		return
	}
	d.active = false
	pos := d.startPos
	if d.opts.Position != nil {
		pos = d.opts.Position()
	}
	if d.opts.OnEnd != nil {
		d.opts.OnEnd(d.id(), pos.X, pos.Y)
	}
}

func (d *Drag) id() string {
	if d.opts.ID == nil {
		return ""
	}
	return d.opts.ID()
}

func zoomOf(f func() float64) float64 {
	if f == nil {
		return 1
	}
	return f()
}
