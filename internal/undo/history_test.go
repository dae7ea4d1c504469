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
	"slices"
	"testing"
	"time"
)

// counter is a trivial target whose state is a slice of ints.
type counter struct{ vals []int }

func (c *counter) Snapshot() []int  { return slices.Clone(c.vals) }
func (c *counter) Restore(s []int) { c.vals = s }

func (c *counter) add(v int) { c.vals = append(c.vals, v) }

func TestUndoRedoBasic(t *testing.T) {
	c := &counter{}
	h := New[[]int](c, Config{})
	h.PushState()
	c.add(1)
	h.PushState()
	c.add(2)

	if !h.Undo() || !slices.Equal(c.vals, []int{1}) {
		t.Fatalf("undo expected [1], got %v", c.vals)
	}
	if !h.Undo() || len(c.vals) != 0 {
		t.Fatalf("undo expected [], got %v", c.vals)
	}
	if h.Undo() {
		t.Fatalf("undo on empty stack should report false")
	}
	if !h.Redo() || !slices.Equal(c.vals, []int{1}) {
		t.Fatalf("redo expected [1], got %v", c.vals)
	}
	if !h.Redo() || !slices.Equal(c.vals, []int{1, 2}) {
		t.Fatalf("redo expected [1 2], got %v", c.vals)
	}
	if h.CanRedo() {
		t.Fatalf("redo stack should be empty")
	}
}

func TestPushClearsRedo(t *testing.T) {
	c := &counter{}
	h := New[[]int](c, Config{})
	h.PushState()
	c.add(1)
	h.Undo()
	if !h.CanRedo() {
		t.Fatalf("expected redo available")
	}
	h.PushState()
	c.add(3)
	if h.CanRedo() {
		t.Fatalf("push should clear redo")
	}
}

func TestDepthCapEvictsOldest(t *testing.T) {
	c := &counter{}
	h := New[[]int](c, Config{})
	for i := 0; i < 60; i++ {
		h.PushState()
		c.add(i)
	}
	if u, _ := h.Depth(); u != DefaultMaxDepth {
		t.Fatalf("expected depth %d, got %d", DefaultMaxDepth, u)
	}
	for h.Undo() {
	}
	// The ten oldest states were evicted, so the earliest reachable state holds 0..9.
	if len(c.vals) != 10 {
		t.Fatalf("expected 10 values after full undo, got %d", len(c.vals))
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	c := &counter{vals: []int{1}}
	h := New[[]int](c, Config{})
	h.PushState()
	c.vals[0] = 42
	h.Undo()
	if c.vals[0] != 1 {
		t.Fatalf("snapshot was aliased: %v", c.vals)
	}
}

func TestCoalesceWithinInterval(t *testing.T) {
	c := &counter{}
	h := New[[]int](c, Config{MinInterval: 100 * time.Millisecond})
	t0 := time.Unix(0, 0)
	h.now = func() time.Time { return t0 }
	h.PushState()
	c.add(1)
	h.now = func() time.Time { return t0.Add(10 * time.Millisecond) }
	h.PushState()
	c.add(2)
	if u, _ := h.Depth(); u != 1 {
		t.Fatalf("expected coalesced depth 1, got %d", u)
	}
	h.Undo()
	if len(c.vals) != 0 {
		t.Fatalf("expected the earliest state, got %v", c.vals)
	}
}

func TestClear(t *testing.T) {
	c := &counter{}
	h := New[[]int](c, Config{MaxDepth: 3})
	h.PushState()
	h.PushState()
	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("clear should empty both stacks")
	}
}
