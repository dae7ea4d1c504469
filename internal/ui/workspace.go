/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts the ticket editor window. Workspace holds everything the
// window does that does not need a toolkit: hit testing, gesture routing,
// preview rendering, saving and export. The fyne front end in app_fyne.go
// only translates toolkit events into Workspace calls.
package ui

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"ticketforge/internal/config"
	"ticketforge/internal/domain"
	"ticketforge/internal/editor"
	"ticketforge/internal/export"
	"ticketforge/internal/geom"
	"ticketforge/internal/interact"
	applog "ticketforge/internal/log"
	"ticketforge/internal/printlayout"
	"ticketforge/internal/render"
	"ticketforge/internal/storage"
)

// Screen geometry of the canvas at zoom 1.
const (
	BasePixelsPerMM = 4.0
	HandleSize      = 10.0 // resize square, screen px
	KnobRadius      = 6.0  // rotation knob, screen px
	KnobOffset      = 20.0 // distance of the knob above the top edge
)

var errNoLibrary = errors.New("no template library open")

// Box is the screen frame of an element before rotation.
type Box struct {
	ID       string
	Rect     geom.Rect
	Rotation float64
}

// ResizeHandle returns the square of the bottom-right handle.
func (b Box) ResizeHandle() geom.Rect {
	return geom.R(b.Rect.X+b.Rect.W-HandleSize/2, b.Rect.Y+b.Rect.H-HandleSize/2, HandleSize, HandleSize)
}

// Knob returns the center of the rotation knob.
func (b Box) Knob() geom.Pt {
	return geom.Pt{X: b.Rect.X + b.Rect.W/2, Y: b.Rect.Y - KnobOffset}
}

// local maps a screen point into the element's unrotated frame.
func (b Box) local(p geom.Pt) geom.Pt {
	if b.Rotation == 0 {
		return p
	}
	return geom.RotateAbout(p, b.Rect.Center(), -b.Rotation)
}

// Workspace couples an editor with the pointer, keyboard and storage
// plumbing of the editor window.
type Workspace struct {
	Editor  *editor.Editor
	Library *storage.Library
	Images  render.FileSource
	Export  config.ExportConfig

	log  *slog.Logger
	keys *interact.Shortcuts
	vp   interact.Viewport
	now  func() time.Time

	mu      sync.Mutex
	origin  geom.Pt
	ctrls   map[string]*interact.Controllers
	preview *render.Renderer
}

// NewWorkspace wires ed to lib. lib may be nil; saving then fails.
func NewWorkspace(ed *editor.Editor, lib *storage.Library, images render.FileSource, exp config.ExportConfig) *Workspace {
	w := &Workspace{
		Editor:  ed,
		Library: lib,
		Images:  images,
		Export:  exp,
		log:     applog.WithComponent("ui"),
		keys:    interact.NewShortcuts(ed),
		now:     time.Now,
		ctrls:   map[string]*interact.Controllers{},
	}
	w.keys.OnAction = func(a interact.Action) {
		w.log.Debug("shortcut", slog.String("action", a.String()))
	}
	return w
}

// SetOrigin moves the canvas top-left corner to p in screen pixels.
func (w *Workspace) SetOrigin(p geom.Pt) {
	w.mu.Lock()
	w.origin = p
	w.mu.Unlock()
}

// View returns the current screen mapping.
func (w *Workspace) View() interact.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return interact.View{Zoom: BasePixelsPerMM * w.Editor.Zoom(), Origin: w.origin}
}

// CanvasSize returns the ticket size in screen pixels.
func (w *Workspace) CanvasSize() (float64, float64) {
	ts := w.Editor.TicketSettings()
	z := w.View().Zoom
	return ts.Width * z, ts.Height * z
}

// Boxes returns the screen frames of all elements, bottom first.
func (w *Workspace) Boxes() []Box {
	v := w.View()
	els := w.Editor.Elements()
	out := make([]Box, 0, len(els))
	for _, el := range els {
		b := el.Common()
		tl := v.ToScreen(geom.Pt{X: b.Position.X, Y: b.Position.Y})
		out = append(out, Box{
			ID:       b.ID,
			Rect:     geom.R(tl.X, tl.Y, b.Size.Width*v.Zoom, b.Size.Height*v.Zoom),
			Rotation: b.Rotation,
		})
	}
	return out
}

// SelectedBoxes returns the frames of the selected elements.
func (w *Workspace) SelectedBoxes() []Box {
	sel := w.Editor.Selection()
	return slices.DeleteFunc(w.Boxes(), func(b Box) bool { return !slices.Contains(sel, b.ID) })
}

// HitTest finds what lies under screen point p. Handles of selected elements
// win over bodies; among bodies the topmost element wins.
func (w *Workspace) HitTest(p geom.Pt) (string, interact.HandleKind, bool) {
	boxes := w.Boxes()
	sel := w.Editor.Selection()
	for i := len(boxes) - 1; i >= 0; i-- {
		b := boxes[i]
		if !slices.Contains(sel, b.ID) {
			continue
		}
		lp := b.local(p)
		if b.ResizeHandle().Contains(lp) {
			return b.ID, interact.HandleResize, true
		}
		k := b.Knob()
		if math.Hypot(lp.X-k.X, lp.Y-k.Y) <= KnobRadius {
			return b.ID, interact.HandleRotate, true
		}
	}
	for i := len(boxes) - 1; i >= 0; i-- {
		if boxes[i].Rect.Contains(boxes[i].local(p)) {
			return boxes[i].ID, interact.HandleNone, true
		}
	}
	return "", interact.HandleNone, false
}

func (w *Workspace) controllers(id string) *interact.Controllers {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.ctrls[id]
	if !ok {
		c = interact.Bind(w.Editor, &w.vp, id, w.View)
		w.ctrls[id] = c
	}
	return c
}

// Press starts a gesture at screen point p. Shift extends the selection and
// snaps rotation. A press on empty canvas clears the selection.
func (w *Workspace) Press(p geom.Pt, shift bool) bool {
	id, kind, ok := w.HitTest(p)
	if !ok {
		w.Editor.ClearSelection()
		return false
	}
	sel := w.Editor.Selection()
	switch {
	case shift && !slices.Contains(sel, id):
		w.Editor.Select(append(sel, id)...)
	case !slices.Contains(sel, id):
		w.Editor.Select(id)
	}
	return w.controllers(id).Press(interact.PointerEvent{X: p.X, Y: p.Y, Shift: shift, Target: kind})
}

func (w *Workspace) Move(p geom.Pt, shift bool) {
	w.vp.DispatchMove(interact.PointerEvent{X: p.X, Y: p.Y, Shift: shift})
}

func (w *Workspace) Release(p geom.Pt) {
	w.vp.DispatchUp(interact.PointerEvent{X: p.X, Y: p.Y})
}

// Blur cancels running gestures, e.g. when the window loses focus.
func (w *Workspace) Blur() { w.vp.Blur() }

// Dragging reports whether a gesture is in progress.
func (w *Workspace) Dragging() bool { return w.vp.ListenerCount() > 0 }

// Key runs the shortcut bound to k.
func (w *Workspace) Key(k interact.KeyEvent) bool { return w.keys.Handle(k) }

// DropColumn places a placeholder for column at screen point p.
func (w *Workspace) DropColumn(column string, p geom.Pt) *domain.TextElement {
	el := interact.DropColumn(w.Editor, w.View(), column, p)
	if el != nil {
		w.Editor.Select(el.ID)
	}
	return el
}

// Preview renders the first dataset row, or the raw template without data,
// at the current screen scale.
func (w *Workspace) Preview() (*image.RGBA, error) {
	dpi := w.View().Zoom * geom.MMPerInch
	w.mu.Lock()
	if w.preview == nil || w.preview.DPI() != dpi {
		w.preview = render.New(render.Options{DPI: dpi, Images: w.Images})
	}
	r := w.preview
	w.mu.Unlock()
	tpl := w.Editor.Template("")
	var row map[string]string
	if len(tpl.CSVData) > 0 {
		row = tpl.CSVData[0]
	}
	return r.RenderRow(&tpl, row)
}

// SheetPreviewDPI is the resolution of the print sheet preview.
const SheetPreviewDPI = 30

// SheetPreview renders the first print page with cut guides. Without data the
// page is filled with the bare template. The returned layout counts every
// data row.
func (w *Workspace) SheetPreview(ctx context.Context) (*image.RGBA, printlayout.Layout, error) {
	tpl := w.Editor.Template("")
	ts := tpl.TicketSettings
	l := printlayout.Calculate(ts.Width, ts.Height, tpl.Gap(), ts.Type, len(tpl.CSVData))
	rows := tpl.CSVData
	if len(rows) == 0 {
		rows = make([]map[string]string, l.TicketsPerPage)
	}
	rows = rows[:min(len(rows), l.TicketsPerPage)]
	job := export.Job{
		Template: &tpl,
		Headers:  tpl.CSVHeaders,
		Rows:     rows,
		Renderer: render.New(render.Options{DPI: SheetPreviewDPI, Images: w.Images}),
	}
	var page *image.RGBA
	_, err := export.RenderSheets(ctx, job, export.SheetOptions{CutLines: true}, func(s export.Sheet) error {
		page = s.Image
		return nil
	}, nil)
	if err != nil {
		return nil, l, err
	}
	return page, l, nil
}

// Open loads template id from the library.
func (w *Workspace) Open(ctx context.Context, id string) error {
	if w.Library == nil {
		return errNoLibrary
	}
	tpl, err := w.Library.Get(ctx, id)
	if err != nil {
		return err
	}
	w.resetControllers()
	w.Editor.Load(tpl)
	return nil
}

// OpenFile loads a template document from disk.
func (w *Workspace) OpenFile(path string) error {
	tpl, err := storage.ReadDocument(path)
	if err != nil {
		return err
	}
	w.resetControllers()
	w.Editor.Load(tpl)
	return nil
}

func (w *Workspace) resetControllers() {
	w.vp.Blur()
	w.mu.Lock()
	clear(w.ctrls)
	w.mu.Unlock()
}

// Save stores the document under name in the library. Built-in presets are
// saved as a new user template.
func (w *Workspace) Save(ctx context.Context, name string) (domain.TicketTemplate, error) {
	if w.Library == nil {
		return domain.TicketTemplate{}, errNoLibrary
	}
	saved, err := w.Library.Save(ctx, w.Editor.Template(name))
	if err != nil {
		return saved, err
	}
	w.Editor.SetTemplateID(saved.ID)
	w.Editor.MarkClean(saved.Name)
	return saved, nil
}

// Autosave writes a snapshot when the document has unsaved changes and
// reports whether it did.
func (w *Workspace) Autosave(ctx context.Context) (bool, error) {
	if w.Library == nil || !w.Editor.IsDirty() {
		return false, nil
	}
	tpl := w.Editor.Template("")
	if tpl.Name == "" {
		tpl.Name = "Untitled"
	}
	if err := w.Library.SaveSnapshot(ctx, tpl, w.now()); err != nil {
		return false, err
	}
	w.log.Debug("autosaved", slog.String("template", tpl.ID))
	return true, nil
}

// RunAutosave calls Autosave every interval until ctx ends.
func (w *Workspace) RunAutosave(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := w.Autosave(ctx); err != nil {
				w.log.Warn("autosave failed", slog.Any("err", err))
			}
		}
	}
}

// ExportAll writes the configured export formats for the bound dataset.
func (w *Workspace) ExportAll(ctx context.Context, progress export.Progress) (map[string]string, error) {
	tpl := w.Editor.Template("")
	if len(tpl.CSVData) == 0 {
		return nil, export.ErrNoRows
	}
	job := export.Job{
		Template:   &tpl,
		Headers:    tpl.CSVHeaders,
		Rows:       tpl.CSVData,
		YieldEvery: w.Export.YieldEvery,
	}
	cut := w.Export.CutLines
	return export.BatchExport(ctx, job, export.BatchOptions{
		Preset:      export.PresetName(w.Export.Preset),
		DPIOverride: w.Export.DPI,
		CutLines:    &cut,
		OutDir:      w.Export.OutDir,
		Images:      w.Images,
	}, progress)
}
