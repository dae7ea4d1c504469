//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based canvas. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
)

func withTestApp(t *testing.T) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
}

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func TestTicketCanvas_LayoutCentersTicket(t *testing.T) {
	ws, _ := newWorkspace(t, false)
	tc := NewTicketCanvas(ws)
	r, ok := tc.CreateRenderer().(*ticketCanvasRenderer)
	if !ok {
		t.Fatalf("expected ticketCanvasRenderer, got %T", tc.CreateRenderer())
	}
	size := fyne.NewSize(1200, 900)
	r.Layout(size)

	cw, ch := ws.CanvasSize()
	if !almostEqual(r.frame.Size().Width, float32(cw), 0.2) || !almostEqual(r.frame.Size().Height, float32(ch), 0.2) {
		t.Fatalf("frame size = %v, want %v x %v", r.frame.Size(), cw, ch)
	}
	wantX := (1200 - float32(cw)) / 2
	if !almostEqual(r.frame.Position().X, wantX, 0.5) {
		t.Fatalf("frame x = %v, want %v", r.frame.Position().X, wantX)
	}
	if r.img.Image == nil {
		t.Fatal("preview image not set")
	}

	tc.offset = fyne.NewPos(100, 50)
	r.Layout(size)
	if !almostEqual(r.frame.Position().X, wantX+100, 0.5) {
		t.Fatalf("frame did not follow pan offset: %v", r.frame.Position())
	}
}

func TestTicketCanvas_SelectionOverlay(t *testing.T) {
	ws, id := newWorkspace(t, false)
	tc := NewTicketCanvas(ws)
	r := tc.CreateRenderer().(*ticketCanvasRenderer)
	r.Layout(fyne.NewSize(1200, 900))
	if len(r.overlay) != 0 {
		t.Fatalf("overlay without selection: %d objects", len(r.overlay))
	}
	ws.Editor.Select(id)
	r.Layout(fyne.NewSize(1200, 900))
	// four frame edges, the knob stem, the resize handle and the knob
	if len(r.overlay) != 7 {
		t.Fatalf("overlay objects = %d", len(r.overlay))
	}
}

func TestTicketCanvas_DragMovesElement(t *testing.T) {
	withTestApp(t)
	ws, id := newWorkspace(t, false)
	tc := NewTicketCanvas(ws)
	tc.Resize(fyne.NewSize(1200, 900))
	o := tc.origin(tc.Size())
	start := fyne.NewPos(float32(o.X)+60, float32(o.Y)+60)

	tc.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: start}, Button: desktop.MouseButtonPrimary})
	tc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: start.Add(fyne.NewPos(40, 0))}, Dragged: fyne.NewDelta(40, 0)})
	tc.DragEnd()

	el, _ := ws.Editor.ElementByID(id)
	if el.Common().Position.X != 20 {
		t.Fatalf("position after drag = %+v", el.Common().Position)
	}
	if ws.Dragging() {
		t.Fatal("gesture still active")
	}
}

func TestTicketCanvas_PanOnEmptyCanvas(t *testing.T) {
	withTestApp(t)
	ws, _ := newWorkspace(t, false)
	tc := NewTicketCanvas(ws)
	tc.Resize(fyne.NewSize(1200, 900))
	tc.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(2, 2)}, Button: desktop.MouseButtonPrimary})
	tc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(32, 12)}, Dragged: fyne.NewDelta(30, 10)})
	tc.DragEnd()
	if tc.offset.X != 30 || tc.offset.Y != 10 {
		t.Fatalf("offset = %v", tc.offset)
	}
}

func TestTicketCanvas_ScrollZooms(t *testing.T) {
	withTestApp(t)
	ws, _ := newWorkspace(t, false)
	tc := NewTicketCanvas(ws)
	tc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, 1)})
	if ws.Editor.Zoom() != 1.25 {
		t.Fatalf("zoom = %v", ws.Editor.Zoom())
	}
	tc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, -1)})
	if ws.Editor.Zoom() != 1 {
		t.Fatalf("zoom = %v", ws.Editor.Zoom())
	}
}
