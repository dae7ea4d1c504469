/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"ticketforge/internal/domain"
	"ticketforge/internal/editor"
	"ticketforge/internal/geom"
)

// Controllers bundles the gestures of one element.
type Controllers struct {
	Drag   *Drag
	Resize *Resize
	Rotate *Rotate
}

// Press routes a press to the controller owning its target.
func (c *Controllers) Press(e PointerEvent) bool {
	switch e.Target {
	case HandleResize:
		return c.Resize.Press(e)
	case HandleRotate:
		return c.Rotate.Press(e)
	default:
		return c.Drag.Press(e)
	}
}

// Active reports whether any gesture is in progress.
func (c *Controllers) Active() bool {
	return c.Drag.Active() || c.Resize.Active() || c.Rotate.Active()
}

// gesture pushes one history entry on the first change of a gesture, so a
// click without movement leaves the undo stack untouched.
type gesture struct {
	ed     *editor.Editor
	pushed bool
}

func (g *gesture) change() {
	if !g.pushed {
		g.ed.PushHistory()
		g.pushed = true
	}
}

func (g *gesture) reset() { g.pushed = false }

// Bind wires drag, resize and rotate of element id to the editor. view is
// queried on every event so zoom and scroll changes apply mid-gesture.
func Bind(ed *editor.Editor, s Surface, id string, view func() View) *Controllers {
	g := &gesture{ed: ed}
	getID := func() string { return id }
	zoom := func() float64 { return view().zoom() }
	base := func() (domain.Base, bool) {
		el, ok := ed.ElementByID(id)
		if !ok {
			return domain.Base{}, false
		}
		return *el.Common(), true
	}

	drag := NewDrag(s, DragOptions{
		Zoom: zoom,
		ID:   getID,
		Position: func() geom.Pt {
			b, _ := base()
			return geom.Pt{X: b.Position.X, Y: b.Position.Y}
		},
		OnStart: func(string) { g.reset() },
		OnMove: func(id string, x, y float64) {
			b, ok := base()
			if !ok || (b.Position.X == x && b.Position.Y == y) {
				return
			}
			g.change()
			ed.MoveElement(id, x, y)
		},
		OnEnd: func(string, float64, float64) { g.reset() },
	})

	resize := NewResize(s, ResizeOptions{
		Zoom: zoom,
		ID:   getID,
		Size: func() (float64, float64) {
			b, _ := base()
			return b.Size.Width, b.Size.Height
		},
		OnResize: func(id string, w, h float64) {
			b, ok := base()
			if !ok || (b.Size.Width == w && b.Size.Height == h) {
				return
			}
			g.change()
			ed.ResizeElement(id, w, h)
		},
		OnEnd: func(string) { g.reset() },
	})

	rotate := NewRotate(s, RotateOptions{
		ID: getID,
		Center: func() geom.Pt {
			b, _ := base()
			return view().ToScreen(b.Center())
		},
		OnRotate: func(id string, deg float64) {
			b, ok := base()
			if !ok || b.Rotation == deg {
				return
			}
			g.change()
			ed.RotateElement(id, deg)
		},
		OnEnd: func(string) { g.reset() },
	})

	return &Controllers{Drag: drag, Resize: resize, Rotate: rotate}
}
