/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"strings"

	"ticketforge/internal/editor"
)

// KeyEvent is a key press. Key is the produced character or a named key
// such as "Delete" or "Backspace".
type KeyEvent struct {
	Key         string
	Ctrl, Meta  bool
	Shift       bool
	InTextInput bool
}

// Action is an editor command bound to a shortcut.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
	ActionSelectAll
	ActionCopy
	ActionCut
	ActionPaste
	ActionDelete
	ActionZoomIn
	ActionZoomOut
	ActionZoomReset
)

var actionNames = [...]string{"none", "undo", "redo", "select-all", "copy", "cut", "paste", "delete", "zoom-in", "zoom-out", "zoom-reset"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// MatchShortcut maps a key press to an action. Keys typed into text inputs
// never match. Meta counts as Ctrl.
func MatchShortcut(k KeyEvent) Action {
	if k.InTextInput {
		return ActionNone
	}
	switch k.Key {
	case "Delete", "Backspace":
		return ActionDelete
	}
	if !k.Ctrl && !k.Meta {
		return ActionNone
	}
	switch strings.ToLower(k.Key) {
	case "z":
		if k.Shift {
			return ActionRedo
		}
		return ActionUndo
	case "y":
		return ActionRedo
	case "a":
		return ActionSelectAll
	case "c":
		return ActionCopy
	case "x":
		return ActionCut
	case "v":
		return ActionPaste
	case "=", "+":
		return ActionZoomIn
	case "-":
		return ActionZoomOut
	case "0":
		return ActionZoomReset
	}
	return ActionNone
}

// Shortcuts dispatches key presses to an editor.
type Shortcuts struct {
	ed *editor.Editor
	// OnAction, if set, observes every handled action.
	OnAction func(Action)
}

func NewShortcuts(ed *editor.Editor) *Shortcuts { return &Shortcuts{ed: ed} }

// Handle runs the action bound to k and reports whether the key was
// consumed.
func (s *Shortcuts) Handle(k KeyEvent) bool {
	a := MatchShortcut(k)
	switch a {
	case ActionNone:
		return false
	case ActionUndo:
		s.ed.Undo()
	case ActionRedo:
		s.ed.Redo()
	case ActionSelectAll:
		s.ed.SelectAll()
	case ActionCopy:
		s.ed.Copy()
	case ActionCut:
		s.ed.Cut()
	case ActionPaste:
		s.ed.Paste()
	case ActionDelete:
		s.ed.DeleteSelected()
	case ActionZoomIn:
		s.ed.ZoomIn()
	case ActionZoomOut:
		s.ed.ZoomOut()
	case ActionZoomReset:
		s.ed.ResetZoom()
	}
	if s.OnAction != nil {
		s.OnAction(a)
	}
	return true
}
