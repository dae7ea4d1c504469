/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// DefaultMaxDepth is the number of undo entries kept when Config leaves it unset.
const DefaultMaxDepth = 50

// Snapshotter captures and restores the state a History tracks.
// Snapshot must return a deep copy that later mutations cannot reach.
type Snapshotter[S any] interface {
	Snapshot() S
	Restore(S)
}

// Config controls depth caps and coalescing behavior.
type Config struct {
	// MaxDepth caps the undo stack; the oldest entries are evicted first.
	MaxDepth int
	// MinInterval coalesces pushes captured within the interval: the earlier
	// snapshot is kept and the new one dropped. Zero disables coalescing.
	MinInterval time.Duration
}

type entry[S any] struct {
	state S
	ts    time.Time
}

// History is a bounded undo/redo stack of snapshots of a single target.
// It is safe for concurrent use.
type History[S any] struct {
	cfg    Config
	target Snapshotter[S]
	now    func() time.Time

	mu   sync.Mutex
	undo []entry[S]
	redo []entry[S]
}

func New[S any](target Snapshotter[S], cfg Config) *History[S] {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &History[S]{cfg: cfg, target: target, now: time.Now}
}

// PushState records the target's current state as an undo point and clears
// the redo stack. Call it before applying a change.
func (h *History[S]) PushState() {
	s := h.target.Snapshot()
	h.mu.Lock()
	defer h.mu.Unlock()
	ts := h.now()
	if n := len(h.undo); n > 0 && h.cfg.MinInterval > 0 && ts.Sub(h.undo[n-1].ts) < h.cfg.MinInterval {
		h.redo = nil
		return
	}
	h.undo = append(h.undo, entry[S]{state: s, ts: ts})
	h.redo = nil
	h.enforceCapLocked()
}

// Undo restores the most recent undo point. The state being replaced moves
// to the redo stack. It reports false when there is nothing to undo.
func (h *History[S]) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.undo)
	if n == 0 {
		return false
	}
	prev := h.undo[n-1]
	h.undo = h.undo[:n-1]
	h.redo = append(h.redo, entry[S]{state: h.target.Snapshot(), ts: h.now()})
	h.target.Restore(prev.state)
	return true
}

// Redo re-applies the most recently undone state.
func (h *History[S]) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.redo)
	if n == 0 {
		return false
	}
	next := h.redo[n-1]
	h.redo = h.redo[:n-1]
	h.undo = append(h.undo, entry[S]{state: h.target.Snapshot(), ts: h.now()})
	h.enforceCapLocked()
	h.target.Restore(next.state)
	return true
}

func (h *History[S]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

func (h *History[S]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Clear drops both stacks, e.g. after loading another document.
func (h *History[S]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = nil
	h.redo = nil
}

// Depth returns the sizes of the undo and redo stacks.
func (h *History[S]) Depth() (undo, redo int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}

func (h *History[S]) enforceCapLocked() {
	if over := len(h.undo) - h.cfg.MaxDepth; over > 0 {
		// drop the oldest entries
		h.undo = append([]entry[S]{}, h.undo[over:]...)
	}
}
