/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import "ticketforge/internal/geom"

// Minimum element size produced by a resize gesture, in mm.
const (
	MinResizeWidth  = 50.0
	MinResizeHeight = 20.0
)

// ResizeOptions configure a Resize. Callbacks may be nil.
type ResizeOptions struct {
	Zoom     func() float64
	ID       func() string
	Size     func() (w, h float64)
	Disabled bool

	OnResize func(id string, w, h float64)
	OnEnd    func(id string)
}

// Resize grows or shrinks an element from its bottom-right handle.
type Resize struct {
	surface Surface
	opts    ResizeOptions

	active         bool
	start          geom.Pt
	startW, startH float64
}

func NewResize(s Surface, opts ResizeOptions) *Resize { return &Resize{surface: s, opts: opts} }

func (r *Resize) Update(opts ResizeOptions) { r.opts = opts }

func (r *Resize) Active() bool { return r.active }

// Press starts a resize unless disabled, already active or the press landed
// on the rotation knob.
func (r *Resize) Press(e PointerEvent) bool {
	if r.opts.Disabled || r.active || e.Target == HandleRotate {
		return false
	}
	r.active = true
	r.start = e.Pt()
	if r.opts.Size != nil {
		r.startW, r.startH = r.opts.Size()
	}
	r.surface.Attach(r)
	return true
}

func (r *Resize) PointerMove(e PointerEvent) {
	if !r.active {
		return
	}
	z := zoomOf(r.opts.Zoom)
	w := max(MinResizeWidth, r.startW+geom.ZoomDelta(e.X-r.start.X, z))
	h := max(MinResizeHeight, r.startH+geom.ZoomDelta(e.Y-r.start.Y, z))
	if r.opts.OnResize != nil {
		r.opts.OnResize(r.id(), w, h)
	}
}

func (r *Resize) PointerUp(PointerEvent) { r.finish() }

func (r *Resize) Cancel() { r.finish() }

func (r *Resize) finish() {
	r.surface.Detach(r)
	if !r.active {
		return
	}
	r.active = false
	if r.opts.OnEnd != nil {
		r.opts.OnEnd(r.id())
	}
}

func (r *Resize) id() string {
	if r.opts.ID == nil {
		return ""
	}
	return r.opts.ID()
}
