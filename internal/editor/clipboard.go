/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"slices"

	"ticketforge/internal/domain"
)

// Select replaces the selection with the known ids among ids.
func (e *Editor) Select(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = e.selection[:0]
	for _, id := range ids {
		if e.indexLocked(id) >= 0 && !slices.Contains(e.selection, id) {
			e.selection = append(e.selection, id)
		}
	}
}

func (e *Editor) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = e.selection[:0]
	for _, el := range e.elements {
		e.selection = append(e.selection, el.Common().ID)
	}
}

func (e *Editor) ClearSelection() {
	e.mu.Lock()
	e.selection = nil
	e.mu.Unlock()
}

func (e *Editor) Selection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.selection)
}

func (e *Editor) selectedLocked() []domain.Element {
	var out []domain.Element
	for _, el := range e.elements {
		if slices.Contains(e.selection, el.Common().ID) {
			out = append(out, el.Clone())
		}
	}
	return out
}

// Copy puts copies of the selected elements on the clipboard and returns how
// many were copied. An empty selection leaves the clipboard untouched.
func (e *Editor) Copy() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.selectedLocked()
	if len(sel) > 0 {
		e.clipboard = sel
	}
	return len(sel)
}

// Cut copies the selection and removes it as one undoable step.
func (e *Editor) Cut() int {
	n := e.Copy()
	if n == 0 {
		return 0
	}
	e.DeleteSelected()
	return n
}

// DeleteSelected removes the selected elements as one undoable step.
func (e *Editor) DeleteSelected() bool {
	ids := map[string]struct{}{}
	for _, id := range e.Selection() {
		ids[id] = struct{}{}
	}
	if len(ids) == 0 {
		return false
	}
	e.PushHistory()
	return e.RemoveElements(ids)
}

// Paste appends clipboard copies with fresh ids, shifted by PasteOffset, and
// selects them. It returns the new ids.
func (e *Editor) Paste() []string {
	e.mu.Lock()
	empty := len(e.clipboard) == 0
	e.mu.Unlock()
	if empty {
		return nil
	}
	e.PushHistory()
	var ids []string
	e.mutate(func() bool {
		for _, src := range e.clipboard {
			el := src.Clone()
			b := el.Common()
			b.ID = domain.NewID()
			b.Position.X += PasteOffset
			b.Position.Y += PasteOffset
			e.elements = append(e.elements, el)
			ids = append(ids, b.ID)
		}
		// shift the clipboard too so repeated pastes cascade
		for _, c := range e.clipboard {
			c.Common().Position.X += PasteOffset
			c.Common().Position.Y += PasteOffset
		}
		e.selection = slices.Clone(ids)
		return true
	})
	return ids
}
