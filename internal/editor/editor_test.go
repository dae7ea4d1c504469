package editor

import (
	"math"
	"testing"

	"ticketforge/internal/domain"
)

func newCounting(t *testing.T) (*Editor, *int) {
	t.Helper()
	n := 0
	e := New(Options{OnDirty: func(d bool) {
		if d {
			n++
		}
	}})
	return e, &n
}

func TestMutatorsMarkDirtyOnce(t *testing.T) {
	e, n := newCounting(t)
	txt := e.AddText(domain.Patch{})
	if *n != 1 || !e.IsDirty() {
		t.Fatalf("add should mark dirty once, got %d", *n)
	}
	e.MoveElement(txt.ID, 20, 30)
	e.ResizeElement(txt.ID, 100, 40)
	e.RotateElement(txt.ID, 370)
	if *n != 4 {
		t.Fatalf("expected 4 notifications, got %d", *n)
	}
	got, ok := e.ElementByID(txt.ID)
	if !ok {
		t.Fatalf("element missing")
	}
	b := got.Common()
	if b.Position.X != 20 || b.Size.Height != 40 || b.Rotation != 10 {
		t.Fatalf("unexpected element: %+v", b)
	}
}

func TestReadsDoNotMarkDirty(t *testing.T) {
	e, n := newCounting(t)
	e.Elements()
	e.ElementAt(0)
	e.ElementByID("nope")
	e.Zoom()
	e.LabelConfig()
	if *n != 0 || e.IsDirty() {
		t.Fatalf("reads must not mark dirty")
	}
	if e.UpdateElement("missing", domain.Patch{X: domain.Ptr(1.0)}) {
		t.Fatalf("unknown id should report false")
	}
	if *n != 0 {
		t.Fatalf("no-op update must not mark dirty")
	}
}

func TestRemoveAndClear(t *testing.T) {
	e := New(Options{})
	a := e.AddText(domain.Patch{})
	b := e.AddCode(domain.Patch{})
	c := e.AddText(domain.Patch{})
	e.RemoveElements(map[string]struct{}{a.ID: {}, c.ID: {}})
	if e.Len() != 1 {
		t.Fatalf("expected 1 element, got %d", e.Len())
	}
	if el, _ := e.ElementAt(0); el.Common().ID != b.ID {
		t.Fatalf("wrong survivor")
	}
	e.ClearElements()
	if e.Len() != 0 {
		t.Fatalf("clear failed")
	}
}

func TestMoveAndResizeKeepGeometryFinite(t *testing.T) {
	e := New(Options{})
	el := e.AddText(domain.Patch{})
	e.MoveElement(el.ID, math.NaN(), math.Inf(-1))
	e.ResizeElement(el.ID, math.NaN(), 10)
	got, _ := e.ElementByID(el.ID)
	b := got.Common()
	if b.Position.X != 0 || b.Position.Y != 10 || b.Size.Width != 0 || b.Size.Height != 10 {
		t.Fatalf("pos=%+v size=%+v", b.Position, b.Size)
	}
}

func TestSnapshotIndependence(t *testing.T) {
	e := New(Options{})
	a := e.AddText(domain.Patch{})
	snap := e.Snapshot()
	e.MoveElement(a.ID, 50, 50)
	if snap[0].Common().Position.X != 10 {
		t.Fatalf("snapshot followed a later mutation")
	}
	e.Restore(snap)
	snap[0].Common().Position.X = 99
	got, _ := e.ElementByID(a.ID)
	if got.Common().Position.X != 10 {
		t.Fatalf("restore aliased the snapshot: %v", got.Common().Position.X)
	}
}

func TestUndoRedoThroughEditor(t *testing.T) {
	e := New(Options{})
	e.PushHistory()
	a := e.AddText(domain.Patch{})
	e.PushHistory()
	e.MoveElement(a.ID, 40, 40)

	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	got, _ := e.ElementByID(a.ID)
	if got.Common().Position.X != 10 {
		t.Fatalf("expected position restored, got %v", got.Common().Position)
	}
	e.Undo()
	if e.Len() != 0 {
		t.Fatalf("expected empty after second undo")
	}
	e.Redo()
	e.Redo()
	got, _ = e.ElementByID(a.ID)
	if got == nil || got.Common().Position.X != 40 {
		t.Fatalf("redo did not restore move")
	}
}

func TestZoomClamp(t *testing.T) {
	e, n := newCounting(t)
	for i := 0; i < 20; i++ {
		e.ZoomIn()
	}
	if e.Zoom() != 3 {
		t.Fatalf("zoom = %v", e.Zoom())
	}
	for i := 0; i < 20; i++ {
		e.ZoomOut()
	}
	if e.Zoom() != 0.25 {
		t.Fatalf("zoom = %v", e.Zoom())
	}
	if e.ResetZoom() != 1 || *n != 0 {
		t.Fatalf("zoom must not mark dirty")
	}
}

func TestSettingsAndMarkClean(t *testing.T) {
	e, n := newCounting(t)
	e.SetTicketType(domain.TicketCertificate)
	if s := e.TicketSettings(); s.Width != 297 || s.Height != 210 {
		t.Fatalf("preset not applied: %+v", s)
	}
	if g := e.SetTicketGap(30); g != 20 {
		t.Fatalf("gap = %v", g)
	}
	e.SetLabelBlockWidth(2)
	if e.LabelConfig().LabelBlockWidth != 5 {
		t.Fatalf("label width not clamped")
	}
	if *n != 3 {
		t.Fatalf("expected 3 dirty marks, got %d", *n)
	}
	e.MarkClean("Gala")
	if e.IsDirty() {
		t.Fatalf("still dirty after MarkClean")
	}
	if ts, name := e.LastSaved(); ts.IsZero() || name != "Gala" {
		t.Fatalf("last saved not recorded: %v %q", ts, name)
	}
	if got := e.Template("").Name; got != "Gala" {
		t.Fatalf("document name = %q", got)
	}
}

func TestCSVLoadFailureKeepsState(t *testing.T) {
	e, n := newCounting(t)
	if err := e.LoadCSV("Name,Tier\nAda,VIP\nBob,GA\nCy,VIP\n"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := e.LoadCSV("Name\n"); err == nil {
		t.Fatalf("expected error")
	}
	if e.Dataset().RowCount() != 3 || *n != 1 {
		t.Fatalf("failed import changed state: rows=%d dirty=%d", e.Dataset().RowCount(), *n)
	}
	e.SetLabelColumn("Tier")
	if got := e.UniqueLabelValues(); len(got) != 2 {
		t.Fatalf("unique values = %v", got)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	e := New(Options{})
	e.AddText(domain.Patch{TextFormat: domain.Ptr("{Name}")})
	_ = e.LoadCSV("Name\nAda\n")
	e.SetTicketGap(4)
	tpl := e.Template("Gala")

	f := New(Options{})
	f.Load(tpl)
	if f.IsDirty() || f.Len() != 1 || f.PrintSettings().TicketGap != 4 {
		t.Fatalf("load mismatch: dirty=%v len=%d", f.IsDirty(), f.Len())
	}
	if f.Dataset().RowCount() != 1 {
		t.Fatalf("dataset not loaded")
	}
	if f.History().CanUndo() {
		t.Fatalf("history should be cleared on load")
	}
}
