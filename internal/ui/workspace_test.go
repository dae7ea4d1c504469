package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"ticketforge/internal/config"
	"ticketforge/internal/domain"
	"ticketforge/internal/editor"
	"ticketforge/internal/export"
	"ticketforge/internal/geom"
	"ticketforge/internal/interact"
	"ticketforge/internal/printlayout"
	"ticketforge/internal/render"
	"ticketforge/internal/storage"
)

// newWorkspace returns a workspace holding one 60x30mm text element at
// (10,10). At zoom 1 its screen frame is (40,40)-(280,160).
func newWorkspace(t *testing.T, withLib bool) (*Workspace, string) {
	t.Helper()
	var lib *storage.Library
	if withLib {
		var err error
		lib, err = storage.OpenLibrary(filepath.Join(t.TempDir(), storage.LibraryFileName))
		if err != nil {
			t.Fatalf("open library: %v", err)
		}
		t.Cleanup(func() { _ = lib.Close() })
	}
	ed := editor.New(editor.Options{})
	el := ed.AddText(domain.Patch{
		X: domain.Ptr(10.0), Y: domain.Ptr(10.0),
		Width: domain.Ptr(60.0), Height: domain.Ptr(30.0),
		TextFormat: domain.Ptr("{Name}"),
	})
	exp := config.Defaults().Export
	exp.DPI = 30
	exp.OutDir = t.TempDir()
	return NewWorkspace(ed, lib, render.FileSource{}, exp), el.ID
}

func TestHitTest(t *testing.T) {
	w, id := newWorkspace(t, false)
	if _, _, ok := w.HitTest(geom.Pt{X: 20, Y: 20}); ok {
		t.Fatal("hit outside element")
	}
	got, kind, ok := w.HitTest(geom.Pt{X: 100, Y: 100})
	if !ok || got != id || kind != interact.HandleNone {
		t.Fatalf("body hit = %q %v %v", got, kind, ok)
	}
	// handles only exist on selected elements
	if _, kind, _ := w.HitTest(geom.Pt{X: 280, Y: 160}); kind != interact.HandleNone {
		t.Fatalf("unselected handle kind = %v", kind)
	}
	w.Editor.Select(id)
	if _, kind, ok := w.HitTest(geom.Pt{X: 280, Y: 160}); !ok || kind != interact.HandleResize {
		t.Fatalf("resize handle kind = %v %v", kind, ok)
	}
	if _, kind, ok := w.HitTest(geom.Pt{X: 160, Y: 20}); !ok || kind != interact.HandleRotate {
		t.Fatalf("rotate knob kind = %v %v", kind, ok)
	}
}

func TestHitTestRotated(t *testing.T) {
	w, id := newWorkspace(t, false)
	w.Editor.RotateElement(id, 90)
	// rotated about (160,100) the frame spans x 100..220, y -20..220
	if got, _, ok := w.HitTest(geom.Pt{X: 110, Y: 200}); !ok || got != id {
		t.Fatalf("rotated body not hit: %q %v", got, ok)
	}
	if _, _, ok := w.HitTest(geom.Pt{X: 50, Y: 100}); ok {
		t.Fatal("hit outside rotated frame")
	}
	w.Editor.Select(id)
	// the knob now sits right of the center
	if _, kind, ok := w.HitTest(geom.Pt{X: 240, Y: 100}); !ok || kind != interact.HandleRotate {
		t.Fatalf("rotated knob kind = %v %v", kind, ok)
	}
}

func TestDragMovesAndUndoes(t *testing.T) {
	w, id := newWorkspace(t, false)
	if !w.Press(geom.Pt{X: 100, Y: 100}, false) {
		t.Fatal("press did not start a gesture")
	}
	if sel := w.Editor.Selection(); len(sel) != 1 || sel[0] != id {
		t.Fatalf("selection = %v", sel)
	}
	w.Move(geom.Pt{X: 140, Y: 100}, false)
	w.Release(geom.Pt{X: 140, Y: 100})
	if w.Dragging() {
		t.Fatal("gesture still active after release")
	}
	el, _ := w.Editor.ElementByID(id)
	if el.Common().Position.X != 20 || el.Common().Position.Y != 10 {
		t.Fatalf("position = %+v", el.Common().Position)
	}
	if !w.Editor.Undo() {
		t.Fatal("undo failed")
	}
	el, _ = w.Editor.ElementByID(id)
	if el.Common().Position.X != 10 {
		t.Fatalf("undo position = %+v", el.Common().Position)
	}
}

func TestResizeAndRotateGestures(t *testing.T) {
	w, id := newWorkspace(t, false)
	w.Editor.Select(id)
	w.Press(geom.Pt{X: 280, Y: 160}, false)
	w.Move(geom.Pt{X: 320, Y: 180}, false)
	w.Release(geom.Pt{X: 320, Y: 180})
	el, _ := w.Editor.ElementByID(id)
	if s := el.Common().Size; s.Width != 70 || s.Height != 35 {
		t.Fatalf("size = %+v", s)
	}

	// new center (10+35, 10+17.5)mm = (180,110)px, knob 20px above the top
	w.Press(geom.Pt{X: 180, Y: 20}, false)
	w.Move(geom.Pt{X: 240, Y: 110}, false)
	w.Release(geom.Pt{X: 240, Y: 110})
	el, _ = w.Editor.ElementByID(id)
	if r := el.Common().Rotation; r != 90 {
		t.Fatalf("rotation = %v", r)
	}
}

func TestPressEmptyClearsSelection(t *testing.T) {
	w, id := newWorkspace(t, false)
	w.Editor.Select(id)
	if w.Press(geom.Pt{X: 5, Y: 5}, false) {
		t.Fatal("press on empty canvas started a gesture")
	}
	if len(w.Editor.Selection()) != 0 {
		t.Fatal("selection not cleared")
	}
}

func TestBlurCancelsGesture(t *testing.T) {
	w, _ := newWorkspace(t, false)
	w.Press(geom.Pt{X: 100, Y: 100}, false)
	if !w.Dragging() {
		t.Fatal("expected active gesture")
	}
	w.Blur()
	if w.Dragging() {
		t.Fatal("blur left gesture active")
	}
}

func TestShortcutsAndDrop(t *testing.T) {
	w, _ := newWorkspace(t, false)
	if !w.Key(interact.KeyEvent{Key: "=", Ctrl: true}) || w.Editor.Zoom() != 1.25 {
		t.Fatalf("zoom in shortcut: zoom = %v", w.Editor.Zoom())
	}
	w.Editor.ResetZoom()
	el := w.DropColumn("Seat", geom.Pt{X: 200, Y: 120})
	if el == nil || el.TextFormat != "{Seat}" || el.Position.X != 50 || el.Position.Y != 30 {
		t.Fatalf("dropped = %+v", el)
	}
	if w.DropColumn("  ", geom.Pt{}) != nil {
		t.Fatal("blank column dropped")
	}
}

func TestPreviewSize(t *testing.T) {
	w, _ := newWorkspace(t, false)
	img, err := w.Preview()
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	want, _ := render.New(render.Options{DPI: BasePixelsPerMM * geom.MMPerInch}).Size(w.Editor.TicketSettings())
	if img.Bounds().Dx() != want {
		t.Fatalf("preview width = %d, want %d", img.Bounds().Dx(), want)
	}
}

func TestSheetPreview(t *testing.T) {
	w, _ := newWorkspace(t, false)
	img, l, err := w.SheetPreview(context.Background())
	if err != nil {
		t.Fatalf("sheet preview: %v", err)
	}
	if l.TicketsPerPage != 8 || l.Orientation != printlayout.Landscape || l.TotalPages != 0 {
		t.Fatalf("layout without data = %+v", l)
	}
	wantW := int(math.Round(l.PageWidth * SheetPreviewDPI / geom.MMPerInch))
	if img == nil || img.Bounds().Dx() != wantW {
		t.Fatalf("sheet width = %v, want %d", img.Bounds(), wantW)
	}

	csv := "Name\n"
	for i := range 10 {
		csv += fmt.Sprintf("Guest %d\n", i)
	}
	if err := w.Editor.LoadCSV(csv); err != nil {
		t.Fatalf("csv: %v", err)
	}
	img, l, err = w.SheetPreview(context.Background())
	if err != nil || img == nil {
		t.Fatalf("sheet preview with data: %v", err)
	}
	if l.TotalPages != 2 {
		t.Fatalf("pages = %d, want 2", l.TotalPages)
	}
}

func TestSaveAutosaveAndOpen(t *testing.T) {
	w, _ := newWorkspace(t, true)
	ctx := context.Background()
	saved, err := w.Autosave(ctx)
	if err != nil || !saved {
		t.Fatalf("autosave dirty doc = %v %v", saved, err)
	}
	snap, err := w.Library.LatestSnapshot(ctx, storage.UnsavedID)
	if err != nil || snap.Template.Name != "Untitled" {
		t.Fatalf("snapshot = %+v %v", snap, err)
	}

	tpl, err := w.Save(ctx, "Gala")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if w.Editor.IsDirty() || w.Editor.Template("").ID != tpl.ID {
		t.Fatal("save did not adopt id or clear dirty flag")
	}
	if saved, _ := w.Autosave(ctx); saved {
		t.Fatal("clean document autosaved")
	}

	w.Editor.ClearElements()
	if err := w.Open(ctx, tpl.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if w.Editor.Len() != 1 {
		t.Fatalf("reopened elements = %d", w.Editor.Len())
	}
}

func TestSaveWithoutLibrary(t *testing.T) {
	w, _ := newWorkspace(t, false)
	if _, err := w.Save(context.Background(), "x"); !errors.Is(err, errNoLibrary) {
		t.Fatalf("err = %v", err)
	}
}

func TestExportAll(t *testing.T) {
	w, _ := newWorkspace(t, false)
	if _, err := w.ExportAll(context.Background(), nil); !errors.Is(err, export.ErrNoRows) {
		t.Fatalf("export without data err = %v", err)
	}
	if err := w.Editor.LoadCSV("Name\nAda\nGrace\n"); err != nil {
		t.Fatalf("csv: %v", err)
	}
	var last int
	paths, err := w.ExportAll(context.Background(), func(done, _ int) { last = done })
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	p, ok := paths[export.FormatZip]
	if !ok || last != 2 {
		t.Fatalf("paths = %v progress = %d", paths, last)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("stat %s: %v", p, err)
	}
}
