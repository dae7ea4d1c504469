package interact

import (
	"math"
	"testing"

	"ticketforge/internal/domain"
	"ticketforge/internal/editor"
	"ticketforge/internal/geom"
)

func TestDragScalesByZoomAndClamps(t *testing.T) {
	vp := &Viewport{}
	pos := geom.Pt{X: 10, Y: 10}
	var started, ended bool
	var endPos geom.Pt
	d := NewDrag(vp, DragOptions{
		Zoom:     func() float64 { return 2 },
		ID:       func() string { return "a" },
		Position: func() geom.Pt { return pos },
		OnStart:  func(string) { started = true },
		OnMove:   func(_ string, x, y float64) { pos = geom.Pt{X: x, Y: y} },
		OnEnd:    func(_ string, x, y float64) { ended = true; endPos = geom.Pt{X: x, Y: y} },
	})
	if !d.Press(PointerEvent{X: 100, Y: 100}) || !started {
		t.Fatalf("press should start the drag")
	}
	if vp.ListenerCount() != 1 {
		t.Fatalf("listener not attached")
	}
	vp.DispatchMove(PointerEvent{X: 120, Y: 80})
	if pos.X != 20 || pos.Y != 0 {
		t.Fatalf("pos = %+v", pos)
	}
	vp.DispatchMove(PointerEvent{X: 0, Y: 0})
	if pos.X != 0 || pos.Y != 0 {
		t.Fatalf("clamp failed: %+v", pos)
	}
	vp.DispatchUp(PointerEvent{})
	if !ended || endPos != pos || d.Active() || vp.ListenerCount() != 0 {
		t.Fatalf("release should end and detach: ended=%v pos=%+v", ended, endPos)
	}
}

func TestDragIgnoresHandlesAndDisabled(t *testing.T) {
	vp := &Viewport{}
	d := NewDrag(vp, DragOptions{})
	if d.Press(PointerEvent{Target: HandleResize}) || d.Press(PointerEvent{Target: HandleRotate}) {
		t.Fatalf("handle press must not start a drag")
	}
	d.Update(DragOptions{Disabled: true})
	if d.Press(PointerEvent{}) {
		t.Fatalf("disabled drag started")
	}
	if vp.ListenerCount() != 0 {
		t.Fatalf("no listener expected")
	}
}

func TestResizeFloors(t *testing.T) {
	vp := &Viewport{}
	var w, h float64
	ended := false
	r := NewResize(vp, ResizeOptions{
		Zoom:     func() float64 { return 1 },
		Size:     func() (float64, float64) { return 100, 40 },
		OnResize: func(_ string, nw, nh float64) { w, h = nw, nh },
		OnEnd:    func(string) { ended = true },
	})
	r.Press(PointerEvent{X: 0, Y: 0, Target: HandleResize})
	vp.DispatchMove(PointerEvent{X: 30, Y: 10})
	if w != 130 || h != 50 {
		t.Fatalf("size = %v x %v", w, h)
	}
	vp.DispatchMove(PointerEvent{X: -500, Y: -500})
	if w != MinResizeWidth || h != MinResizeHeight {
		t.Fatalf("floors = %v x %v", w, h)
	}
	vp.Blur()
	if !ended || r.Active() || vp.ListenerCount() != 0 {
		t.Fatalf("blur should cancel the resize")
	}
}

func TestRotateSnapsWithShift(t *testing.T) {
	vp := &Viewport{}
	var deg float64
	r := NewRotate(vp, RotateOptions{
		Center:   func() geom.Pt { return geom.Pt{X: 0, Y: 0} },
		OnRotate: func(_ string, d float64) { deg = d },
	})
	r.Press(PointerEvent{Target: HandleRotate})
	// pointer straight right of the center turns the top to the right
	vp.DispatchMove(PointerEvent{X: 10, Y: 0})
	if math.Abs(deg-90) > 1e-9 {
		t.Fatalf("deg = %v", deg)
	}
	vp.DispatchMove(PointerEvent{X: 0, Y: -10})
	if math.Abs(deg) > 1e-9 {
		t.Fatalf("straight up should be 0, got %v", deg)
	}
	vp.DispatchMove(PointerEvent{X: 10, Y: -9, Shift: true})
	if deg != 45 {
		t.Fatalf("snapped deg = %v", deg)
	}
	vp.DispatchUp(PointerEvent{})
	if r.Active() {
		t.Fatalf("rotate still active")
	}
}

func TestRotateTracksLiveCenter(t *testing.T) {
	vp := &Viewport{}
	center := geom.Pt{X: 0, Y: 0}
	var deg float64
	r := NewRotate(vp, RotateOptions{
		Center:   func() geom.Pt { return center },
		OnRotate: func(_ string, d float64) { deg = d },
	})
	r.Press(PointerEvent{Target: HandleRotate})
	vp.DispatchMove(PointerEvent{X: 10, Y: 0})
	if math.Abs(deg-90) > 1e-9 {
		t.Fatalf("deg = %v, want 90", deg)
	}
	// the element moved under the same pointer
	center = geom.Pt{X: 20, Y: 0}
	vp.DispatchMove(PointerEvent{X: 10, Y: 0})
	if math.Abs(deg-270) > 1e-9 {
		t.Fatalf("deg after center moved = %v, want 270", deg)
	}
	vp.DispatchUp(PointerEvent{})
}

func TestBindPushesOneHistoryEntryPerGesture(t *testing.T) {
	ed := editor.New(editor.Options{})
	el := ed.AddText(domain.Patch{X: domain.Ptr(10.0), Y: domain.Ptr(10.0)})
	vp := &Viewport{}
	view := View{Zoom: 2}
	c := Bind(ed, vp, el.ID, func() View { return view })

	// click without movement
	c.Press(PointerEvent{X: 20, Y: 20})
	vp.DispatchUp(PointerEvent{X: 20, Y: 20})
	if u, _ := ed.History().Depth(); u != 0 {
		t.Fatalf("click pushed history: %d", u)
	}

	c.Press(PointerEvent{X: 20, Y: 20})
	vp.DispatchMove(PointerEvent{X: 30, Y: 20})
	vp.DispatchMove(PointerEvent{X: 40, Y: 24})
	vp.DispatchUp(PointerEvent{X: 40, Y: 24})
	if u, _ := ed.History().Depth(); u != 1 {
		t.Fatalf("drag should push one entry, got %d", u)
	}
	got, _ := ed.ElementByID(el.ID)
	if p := got.Common().Position; p.X != 20 || p.Y != 12 {
		t.Fatalf("moved to %+v", p)
	}

	c.Press(PointerEvent{Target: HandleResize})
	vp.DispatchMove(PointerEvent{X: 100, Y: 100})
	vp.DispatchUp(PointerEvent{})
	if u, _ := ed.History().Depth(); u != 2 {
		t.Fatalf("resize should push one entry, got %d", u)
	}
	if !ed.Undo() || !ed.Undo() {
		t.Fatalf("undo failed")
	}
	got, _ = ed.ElementByID(el.ID)
	if p := got.Common().Position; p.X != 10 || p.Y != 10 {
		t.Fatalf("undo restored %+v", p)
	}
}

func TestShortcutMatching(t *testing.T) {
	cases := []struct {
		k    KeyEvent
		want Action
	}{
		{KeyEvent{Key: "z", Ctrl: true}, ActionUndo},
		{KeyEvent{Key: "Z", Ctrl: true, Shift: true}, ActionRedo},
		{KeyEvent{Key: "y", Meta: true}, ActionRedo},
		{KeyEvent{Key: "a", Ctrl: true}, ActionSelectAll},
		{KeyEvent{Key: "c", Ctrl: true}, ActionCopy},
		{KeyEvent{Key: "x", Ctrl: true}, ActionCut},
		{KeyEvent{Key: "v", Ctrl: true}, ActionPaste},
		{KeyEvent{Key: "Delete"}, ActionDelete},
		{KeyEvent{Key: "Backspace"}, ActionDelete},
		{KeyEvent{Key: "+", Ctrl: true}, ActionZoomIn},
		{KeyEvent{Key: "-", Ctrl: true}, ActionZoomOut},
		{KeyEvent{Key: "0", Ctrl: true}, ActionZoomReset},
		{KeyEvent{Key: "c"}, ActionNone},
		{KeyEvent{Key: "z", Ctrl: true, InTextInput: true}, ActionNone},
		{KeyEvent{Key: "Delete", InTextInput: true}, ActionNone},
	}
	for _, c := range cases {
		if got := MatchShortcut(c.k); got != c.want {
			t.Fatalf("%+v: got %s want %s", c.k, got, c.want)
		}
	}
}

func TestShortcutsDriveEditor(t *testing.T) {
	ed := editor.New(editor.Options{})
	ed.AddText(domain.Patch{})
	s := NewShortcuts(ed)
	var seen []Action
	s.OnAction = func(a Action) { seen = append(seen, a) }

	s.Handle(KeyEvent{Key: "a", Ctrl: true})
	s.Handle(KeyEvent{Key: "c", Ctrl: true})
	s.Handle(KeyEvent{Key: "v", Ctrl: true})
	if ed.Len() != 2 {
		t.Fatalf("paste should duplicate, len=%d", ed.Len())
	}
	s.Handle(KeyEvent{Key: "=", Ctrl: true})
	if ed.Zoom() != 1.25 {
		t.Fatalf("zoom = %v", ed.Zoom())
	}
	if s.Handle(KeyEvent{Key: "q"}) {
		t.Fatalf("unbound key handled")
	}
	if len(seen) != 4 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestDropColumn(t *testing.T) {
	ed := editor.New(editor.Options{})
	view := View{Zoom: 2, Origin: geom.Pt{X: 100, Y: 50}}
	el := DropColumn(ed, view, "First Name", geom.Pt{X: 140, Y: 90})
	if el == nil || el.TextFormat != "{First Name}" || el.Position.X != 20 || el.Position.Y != 20 {
		t.Fatalf("dropped = %+v", el)
	}
	if DropColumn(ed, view, "  ", geom.Pt{}) != nil || ed.Len() != 1 {
		t.Fatalf("empty column must be ignored")
	}
	if !ed.Undo() || ed.Len() != 0 {
		t.Fatalf("drop should be undoable")
	}
}
