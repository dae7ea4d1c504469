/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import "ticketforge/internal/geom"

// RotateOptions configure a Rotate. Callbacks may be nil.
type RotateOptions struct {
	ID func() string
	// Center returns the element center in screen pixels. It is queried on
	// every move so a moving element is tracked.
	Center   func() geom.Pt
	Disabled bool

	OnRotate func(id string, deg float64)
	OnEnd    func(id string)
}

// Rotate turns an element so its top faces the pointer. Holding Shift snaps
// to 45 degree steps.
type Rotate struct {
	surface Surface
	opts    RotateOptions
	active  bool
}

func NewRotate(s Surface, opts RotateOptions) *Rotate { return &Rotate{surface: s, opts: opts} }

func (r *Rotate) Update(opts RotateOptions) { r.opts = opts }

func (r *Rotate) Active() bool { return r.active }

// Press starts a rotation unless disabled, already active or the press
// landed on the resize handle.
func (r *Rotate) Press(e PointerEvent) bool {
	if r.opts.Disabled || r.active || e.Target == HandleResize {
		return false
	}
	r.active = true
	r.surface.Attach(r)
	return true
}

func (r *Rotate) PointerMove(e PointerEvent) {
	if !r.active || r.opts.Center == nil {
		return
	}
	deg := geom.PointerAngle(e.Pt(), r.opts.Center(), e.Shift)
	if r.opts.OnRotate != nil {
		r.opts.OnRotate(r.id(), deg)
	}
}

func (r *Rotate) PointerUp(PointerEvent) { r.finish() }

func (r *Rotate) Cancel() { r.finish() }

func (r *Rotate) finish() {
	r.surface.Detach(r)
	if !r.active {
		return
	}
	r.active = false
	if r.opts.OnEnd != nil {
		r.opts.OnEnd(r.id())
	}
}

func (r *Rotate) id() string {
	if r.opts.ID == nil {
		return ""
	}
	return r.opts.ID()
}
