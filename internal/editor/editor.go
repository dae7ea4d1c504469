/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor holds the state of the ticket being composed: its elements,
// document settings, bound dataset, selection and undo history.
//
// Editor is the single writer of that state. Reads return copies. Every
// mutating call that changes something marks the document dirty once.
package editor

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"ticketforge/internal/dataset"
	"ticketforge/internal/domain"
	"ticketforge/internal/geom"
	applog "ticketforge/internal/log"
	"ticketforge/internal/undo"
)

// PasteOffset is how far pasted copies are shifted from their source, in mm.
const PasteOffset = 5.0

// Options configure a new Editor.
type Options struct {
	// HistoryDepth caps undo entries; zero means undo.DefaultMaxDepth.
	HistoryDepth int
	// OnDirty is called, outside the editor lock, after each change of the
	// dirty flag.
	OnDirty func(dirty bool)
}

// Editor is the document context shared by the canvas, controllers and export.
type Editor struct {
	opts Options
	log  *slog.Logger
	hist *undo.History[[]domain.Element]
	data dataset.Store

	mu         sync.Mutex
	elements   []domain.Element
	selection  []string
	clipboard  []domain.Element
	dirty      bool
	savedAt    time.Time
	savedName  string
	zoom       float64
	templateID string
	name       string
	settings   domain.TicketSettings
	background *string
	labels     domain.LabelConfig
	print      domain.PrintSettings
}

func New(opts Options) *Editor {
	e := &Editor{
		opts:     opts,
		log:      applog.WithComponent("editor"),
		zoom:     1,
		settings: domain.DefaultTicketSettings(),
		labels:   domain.DefaultLabelConfig(),
		print:    domain.DefaultPrintSettings(),
	}
	e.hist = undo.New[[]domain.Element](e, undo.Config{MaxDepth: opts.HistoryDepth})
	return e
}

// mutate runs fn under the lock. When fn reports a change the document is
// marked dirty and OnDirty is notified after unlocking.
func (e *Editor) mutate(fn func() bool) bool {
	e.mu.Lock()
	changed := fn()
	wasDirty := e.dirty
	if changed {
		e.dirty = true
	}
	e.mu.Unlock()
	if changed && e.opts.OnDirty != nil {
		e.opts.OnDirty(true)
	}
	if changed && !wasDirty {
		e.log.Debug("document dirty")
	}
	return changed
}

// Elements

// AddText appends a text element built from defaults plus p and returns a copy.
func (e *Editor) AddText(p domain.Patch) *domain.TextElement {
	el := domain.NewTextElement(p)
	e.mutate(func() bool {
		e.elements = append(e.elements, el)
		return true
	})
	return el.Clone().(*domain.TextElement)
}

// AddCode appends a code element built from defaults plus p and returns a copy.
func (e *Editor) AddCode(p domain.Patch) *domain.CodeElement {
	el := domain.NewCodeElement(p)
	e.mutate(func() bool {
		e.elements = append(e.elements, el)
		return true
	})
	return el.Clone().(*domain.CodeElement)
}

// Elements returns a deep copy of the element sequence.
func (e *Editor) Elements() []domain.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneElements(e.elements)
}

func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.elements)
}

func (e *Editor) ElementByID(id string) (domain.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexLocked(id); i >= 0 {
		return e.elements[i].Clone(), true
	}
	return nil, false
}

func (e *Editor) ElementAt(index int) (domain.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.elements) {
		return nil, false
	}
	return e.elements[index].Clone(), true
}

func (e *Editor) indexLocked(id string) int {
	return slices.IndexFunc(e.elements, func(el domain.Element) bool { return el.Common().ID == id })
}

// UpdateElement merges p into the element with id. It reports false when the
// id is unknown or the patch is empty; nothing is marked dirty then.
func (e *Editor) UpdateElement(id string, p domain.Patch) bool {
	if p.Empty() {
		return false
	}
	return e.mutate(func() bool {
		i := e.indexLocked(id)
		if i < 0 {
			return false
		}
		el := e.elements[i].Clone()
		p.Apply(el)
		e.elements[i] = el
		return true
	})
}

// MoveElement sets the top-left position in mm.
func (e *Editor) MoveElement(id string, x, y float64) bool {
	return e.UpdateElement(id, domain.Patch{X: &x, Y: &y})
}

// ResizeElement sets the size in mm.
func (e *Editor) ResizeElement(id string, w, h float64) bool {
	return e.UpdateElement(id, domain.Patch{Width: &w, Height: &h})
}

// RotateElement sets the rotation in degrees.
func (e *Editor) RotateElement(id string, deg float64) bool {
	return e.UpdateElement(id, domain.Patch{Rotation: &deg})
}

func (e *Editor) RemoveElement(id string) bool {
	return e.RemoveElements(map[string]struct{}{id: {}})
}

// RemoveElements drops every element whose id is in ids.
func (e *Editor) RemoveElements(ids map[string]struct{}) bool {
	return e.mutate(func() bool {
		n := len(e.elements)
		e.elements = slices.DeleteFunc(e.elements, func(el domain.Element) bool {
			_, ok := ids[el.Common().ID]
			return ok
		})
		e.selection = slices.DeleteFunc(e.selection, func(id string) bool {
			_, ok := ids[id]
			return ok
		})
		return len(e.elements) != n
	})
}

// SetElements replaces the whole sequence with copies of els.
func (e *Editor) SetElements(els []domain.Element) {
	cp := domain.CloneElements(els)
	e.mutate(func() bool {
		e.elements = cp
		e.selection = nil
		return true
	})
}

func (e *Editor) ClearElements() {
	e.mutate(func() bool {
		e.elements = nil
		e.selection = nil
		return true
	})
}

// Snapshot returns a deep copy of the elements for the undo history.
func (e *Editor) Snapshot() []domain.Element { return e.Elements() }

// Restore replaces the elements with a copy of s and marks the document dirty.
func (e *Editor) Restore(s []domain.Element) {
	cp := domain.CloneElements(s)
	e.mutate(func() bool {
		e.elements = cp
		e.selection = slices.DeleteFunc(e.selection, func(id string) bool {
			return slices.IndexFunc(cp, func(el domain.Element) bool { return el.Common().ID == id }) < 0
		})
		return true
	})
}

// History

func (e *Editor) History() *undo.History[[]domain.Element] { return e.hist }

// PushHistory records the current elements as an undo point.
func (e *Editor) PushHistory() { e.hist.PushState() }

func (e *Editor) Undo() bool { return e.hist.Undo() }
func (e *Editor) Redo() bool { return e.hist.Redo() }

// Dirty state

func (e *Editor) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// MarkDirty flags the document as changed without touching its content.
func (e *Editor) MarkDirty() { e.mutate(func() bool { return true }) }

// MarkClean records a successful save under templateName, which also
// becomes the document name.
func (e *Editor) MarkClean(templateName string) {
	e.mu.Lock()
	e.dirty = false
	e.savedAt = time.Now()
	if templateName != "" {
		e.savedName = templateName
		e.name = templateName
	}
	e.mu.Unlock()
	if e.opts.OnDirty != nil {
		e.opts.OnDirty(false)
	}
	e.log.Debug("document saved", slog.String("template", templateName))
}

// LastSaved returns the time and template name of the last MarkClean.
func (e *Editor) LastSaved() (time.Time, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.savedAt, e.savedName
}

// Zoom does not touch the dirty flag.

func (e *Editor) Zoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom
}

func (e *Editor) SetZoom(z float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.zoom = geom.ClampZoom(z)
	return e.zoom
}

func (e *Editor) ZoomIn() float64  { return e.SetZoom(e.Zoom() + geom.ZoomStep) }
func (e *Editor) ZoomOut() float64 { return e.SetZoom(e.Zoom() - geom.ZoomStep) }
func (e *Editor) ResetZoom() float64 {
	return e.SetZoom(1)
}

// Dataset returns the store holding the bound CSV data.
func (e *Editor) Dataset() *dataset.Store { return &e.data }

// LoadCSV parses text into the bound dataset. On error nothing changes.
func (e *Editor) LoadCSV(text string) error {
	if err := e.data.Load(text); err != nil {
		e.log.Warn("csv import failed", slog.Any("err", err))
		return err
	}
	e.MarkDirty()
	return nil
}
