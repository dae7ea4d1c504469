//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ticketforge/internal/config"
	"ticketforge/internal/crash"
	"ticketforge/internal/domain"
	"ticketforge/internal/editor"
	"ticketforge/internal/geom"
	"ticketforge/internal/interact"
	applog "ticketforge/internal/log"
	"ticketforge/internal/render"
	"ticketforge/internal/storage"
)

const autosaveInterval = 30 * time.Second

var ticketTypes = []string{
	string(domain.TicketStandard),
	string(domain.TicketConventionID),
	string(domain.TicketCertificate),
	string(domain.TicketOthers),
}

var codeTypes = []string{
	string(domain.CodeQR), string(domain.CodeCode128), string(domain.CodeCode39), string(domain.CodeCode93),
	string(domain.CodeEAN13), string(domain.CodeEAN8), string(domain.CodeCodabar), string(domain.CodeITF),
}

// shortcutKeys are the Ctrl/Cmd combinations forwarded to the editor.
var shortcutKeys = []struct {
	name  fyne.KeyName
	key   string
	shift bool
}{
	{fyne.KeyZ, "z", false},
	{fyne.KeyZ, "z", true},
	{fyne.KeyY, "y", false},
	{fyne.KeyA, "a", false},
	{fyne.KeyC, "c", false},
	{fyne.KeyX, "x", false},
	{fyne.KeyV, "v", false},
	{fyne.KeyEqual, "=", false},
	{fyne.KeyMinus, "-", false},
	{fyne.Key0, "0", false},
}

// Run starts the ticket editor window. templateRef may name a library
// template id or a template document on disk.
func Run(templateRef string) error {
	cfg, _, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var lib *storage.Library
	if path, err := cfg.LibraryPath(); err != nil {
		l.Warn("no library path", slog.Any("err", err))
	} else if lib, err = storage.OpenLibrary(path); err != nil {
		l.Warn("library unavailable; saving disabled", slog.Any("err", err))
		lib = nil
	}
	if lib != nil {
		defer func() { _ = lib.Close() }()
	}
	session := &crash.Session{Library: lib}
	defer crash.Recover(session)

	fyneApp := app.NewWithID("ticketforge")
	win := fyneApp.NewWindow("TicketForge")
	prefs := fyneApp.Preferences()
	win.Resize(fyne.NewSize(
		float32(max(900, prefs.IntWithFallback("window.width", 1280))),
		float32(max(600, prefs.IntWithFallback("window.height", 820))),
	))

	status := widget.NewLabel("Ready")
	var updateTitle func()
	ed := editor.New(editor.Options{OnDirty: func(bool) {
		if updateTitle != nil {
			updateTitle()
		}
	}})
	session.Editor = ed
	ws := NewWorkspace(ed, lib, render.FileSource{}, cfg.Export)
	ed.SetTicketGap(cfg.Export.TicketGap)

	updateTitle = func() {
		name := ed.Template("").Name
		if name == "" {
			name = crash.UntitledName
		}
		if ed.IsDirty() {
			name += " *"
		}
		win.SetTitle("TicketForge - " + name)
	}

	tc := NewTicketCanvas(ws)
	props := newPropertyPanel(ws, win)
	columns := newColumnPanel(ws, tc)
	refresh := func() {
		tc.Refresh()
		props.Refresh()
		columns.Refresh()
		updateTitle()
	}
	tc.OnChanged = func() {
		props.Refresh()
		updateTitle()
	}
	props.onApply = func() { tc.Refresh(); updateTitle() }

	if ref := strings.TrimSpace(templateRef); ref != "" {
		if err := openRef(ws, ref); err != nil {
			l.Warn("open template failed", slog.String("ref", ref), slog.Any("err", err))
			status.SetText("Could not open " + ref + ": " + err.Error())
		} else {
			status.SetText("Opened " + ref)
		}
	}

	typeSelect := widget.NewSelect(ticketTypes, func(v string) {
		if domain.TicketType(v) == ed.TicketSettings().Type {
			return
		}
		ed.SetTicketType(domain.TicketType(v))
		l.Info("ticket type changed", slog.String("type", v))
		refresh()
	})
	typeSelect.SetSelected(string(ed.TicketSettings().Type))

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			ed.PushHistory()
			el := ed.AddText(domain.Patch{})
			ed.Select(el.ID)
			refresh()
		}),
		widget.NewToolbarAction(theme.GridIcon(), func() {
			ed.PushHistory()
			el := ed.AddCode(domain.Patch{})
			ed.Select(el.ID)
			refresh()
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			ed.DeleteSelected()
			refresh()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { ed.Undo(); refresh() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { ed.Redo(); refresh() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { ed.ZoomIn(); refresh() }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { ed.ZoomOut(); refresh() }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { ed.ResetZoom(); refresh() }),
	)
	topBar := container.NewBorder(nil, nil, nil, container.NewHBox(widget.NewLabel("Type"), typeSelect), toolbar)

	// Menus
	saveAs := func(done func()) {
		name := widget.NewEntry()
		name.SetText(ed.Template("").Name)
		dialog.NewForm("Save Template", "Save", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", name),
		}, func(ok bool) {
			if !ok {
				return
			}
			tpl, err := ws.Save(context.Background(), strings.TrimSpace(name.Text))
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			status.SetText("Saved " + tpl.Name + " (" + tpl.ID + ")")
			updateTitle()
			if done != nil {
				done()
			}
		}, win).Show()
	}
	saveItem := fyne.NewMenuItem("Save", func() {
		if ed.Template("").Name == "" {
			saveAs(nil)
			return
		}
		tpl, err := ws.Save(context.Background(), "")
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		status.SetText("Saved " + tpl.Name)
		updateTitle()
	})
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	saveAsItem := fyne.NewMenuItem("Save As…", func() { saveAs(nil) })

	openItem := fyne.NewMenuItem("Open Template…", func() {
		if lib == nil {
			dialog.ShowInformation("Open Template", "No template library available.", win)
			return
		}
		sums, err := lib.List(context.Background())
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		labels := make([]string, len(sums))
		for i, s := range sums {
			labels[i] = s.Name + " [" + s.ID + "]"
		}
		pick := widget.NewSelect(labels, nil)
		dialog.NewCustomConfirm("Open Template", "Open", "Cancel", pick, func(ok bool) {
			if !ok || pick.SelectedIndex() < 0 {
				return
			}
			id := sums[pick.SelectedIndex()].ID
			if err := ws.Open(context.Background(), id); err != nil {
				dialog.ShowError(err, win)
				return
			}
			typeSelect.SetSelected(string(ed.TicketSettings().Type))
			status.SetText("Opened " + id)
			refresh()
		}, win).Show()
	})
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}

	importItem := fyne.NewMenuItem("Import Document…", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			if err := ws.OpenFile(path); err != nil {
				dialog.ShowError(err, win)
				return
			}
			typeSelect.SetSelected(string(ed.TicketSettings().Type))
			status.SetText("Imported " + path)
			refresh()
		}, win)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})

	exportDocItem := fyne.NewMenuItem("Export Document…", func() {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			if !strings.HasSuffix(strings.ToLower(path), ".json") {
				path += ".json"
			}
			if err := storage.WriteDocument(path, ed.Template("")); err != nil {
				dialog.ShowError(err, win)
				return
			}
			status.SetText("Wrote " + path)
		}, win)
		fd.SetFileName("template.json")
		fd.Show()
	})

	csvItem := fyne.NewMenuItem("Load CSV…", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			defer func() { _ = rc.Close() }()
			raw, err := io.ReadAll(rc)
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			if err := ed.LoadCSV(string(raw)); err != nil {
				dialog.ShowError(err, win)
				return
			}
			status.SetText(fmt.Sprintf("Loaded %d rows", ed.Dataset().RowCount()))
			refresh()
		}, win)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".csv", ".txt"}))
		fd.Show()
	})

	bgItem := fyne.NewMenuItem("Set Background…", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			ed.SetBackground(&path)
			refresh()
		}, win)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}))
		fd.Show()
	})
	clearBgItem := fyne.NewMenuItem("Clear Background", func() {
		ed.SetBackground(nil)
		refresh()
	})

	exportItem := fyne.NewMenuItem("Export Tickets…", func() {
		bar := widget.NewProgressBar()
		d := dialog.NewCustomWithoutButtons("Exporting", bar, win)
		d.Show()
		go func() {
			paths, err := ws.ExportAll(context.Background(), func(done, total int) {
				fyne.Do(func() { bar.SetValue(float64(done) / float64(max(total, 1))) })
			})
			fyne.Do(func() {
				d.Hide()
				if err != nil {
					dialog.ShowError(err, win)
					return
				}
				var lines []string
				for f, p := range paths {
					lines = append(lines, f+": "+p)
				}
				dialog.ShowInformation("Export", strings.Join(lines, "\n"), win)
				status.SetText("Export finished")
			})
		}()
	})
	exportItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierShortcutDefault}

	sheetItem := fyne.NewMenuItem("Print Preview…", func() {
		go func() {
			img, l, err := ws.SheetPreview(context.Background())
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, win)
					return
				}
				pic := canvas.NewImageFromImage(img)
				pic.FillMode = canvas.ImageFillContain
				pic.SetMinSize(fyne.NewSize(float32(img.Bounds().Dx())*2, float32(img.Bounds().Dy())*2))
				info := widget.NewLabel(fmt.Sprintf("%s, %d x %d per page, %d page(s)",
					l.Orientation, l.TicketsPerRow, l.TicketsPerCol, l.TotalPages))
				dialog.ShowCustom("Print Preview", "Close", container.NewBorder(nil, info, nil, nil, pic), win)
			})
		}()
	})

	fileMenu := fyne.NewMenu("File", openItem, saveItem, saveAsItem, fyne.NewMenuItemSeparator(),
		importItem, exportDocItem, fyne.NewMenuItemSeparator(), csvItem, bgItem, clearBgItem, fyne.NewMenuItemSeparator(), sheetItem, exportItem)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { ed.Undo(); refresh() }),
		fyne.NewMenuItem("Redo", func() { ed.Redo(); refresh() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Select All", func() { ed.SelectAll(); refresh() }),
		fyne.NewMenuItem("Clear Elements", func() { ed.ClearElements(); refresh() }),
	)
	win.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu))

	// Keyboard: Ctrl/Cmd combinations arrive as shortcuts, plain keys via
	// the canvas handler, which only fires when no entry has focus.
	for _, k := range shortcutKeys {
		mod := fyne.KeyModifierShortcutDefault
		if k.shift {
			mod |= fyne.KeyModifierShift
		}
		win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: k.name, Modifier: mod}, func(fyne.Shortcut) {
			_, inEntry := win.Canvas().Focused().(*widget.Entry)
			if ws.Key(interact.KeyEvent{Key: k.key, Ctrl: true, Shift: k.shift, InTextInput: inEntry}) {
				refresh()
			}
		})
	}
	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			if ws.Key(interact.KeyEvent{Key: "Delete"}) {
				refresh()
			}
		case fyne.KeyEscape:
			ws.Blur()
			ed.ClearSelection()
			refresh()
		}
	})
	fyneApp.Lifecycle().SetOnExitedForeground(ws.Blur)

	autoCtx, stopAutosave := context.WithCancel(context.Background())
	defer stopAutosave()
	if cfg.General.Autosave && lib != nil {
		go ws.RunAutosave(autoCtx, autosaveInterval)
	}

	win.SetCloseIntercept(func() {
		sz := win.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if !ed.IsDirty() {
			win.Close()
			return
		}
		dialog.ShowConfirm("Unsaved Changes", "Discard unsaved changes and quit?", func(ok bool) {
			if ok {
				win.Close()
			}
		}, win)
	})

	left := container.NewBorder(widget.NewLabel("CSV Columns"), nil, nil, nil, columns.list)
	right := container.NewVScroll(props.form)
	center := container.NewBorder(topBar, status, nil, nil, tc)
	split := container.NewHSplit(left, container.NewHSplit(center, right))
	split.Offset = 0.15
	win.SetContent(split)
	updateTitle()
	win.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// openRef loads a document path when ref names an existing file and a
// library template otherwise.
func openRef(ws *Workspace, ref string) error {
	if st, err := os.Stat(ref); err == nil && !st.IsDir() {
		return ws.OpenFile(ref)
	}
	return ws.Open(context.Background(), ref)
}

// TicketCanvas shows the rendered ticket with the selection overlay and
// feeds pointer input into a Workspace.
type TicketCanvas struct {
	widget.BaseWidget
	ws *Workspace

	offset  fyne.Position
	panning bool
	shift   bool
	last    geom.Pt

	// OnChanged is called after a gesture changed the document or selection.
	OnChanged func()
}

var (
	_ fyne.Draggable    = (*TicketCanvas)(nil)
	_ fyne.Scrollable   = (*TicketCanvas)(nil)
	_ desktop.Mouseable = (*TicketCanvas)(nil)
)

func NewTicketCanvas(ws *Workspace) *TicketCanvas {
	c := &TicketCanvas{ws: ws}
	c.ExtendBaseWidget(c)
	return c
}

// origin centers the ticket in size and adds the pan offset.
func (c *TicketCanvas) origin(size fyne.Size) geom.Pt {
	cw, ch := c.ws.CanvasSize()
	return geom.Pt{
		X: (float64(size.Width)-cw)/2 + float64(c.offset.X),
		Y: (float64(size.Height)-ch)/2 + float64(c.offset.Y),
	}
}

func toPt(p fyne.Position) geom.Pt { return geom.Pt{X: float64(p.X), Y: float64(p.Y)} }

func toPos(p geom.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }

func (c *TicketCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.ws.SetOrigin(c.origin(c.Size()))
	c.shift = ev.Modifier&fyne.KeyModifierShift != 0
	c.last = toPt(ev.Position)
	c.panning = !c.ws.Press(c.last, c.shift)
	c.changed()
}

func (c *TicketCanvas) MouseUp(ev *desktop.MouseEvent) { c.release(toPt(ev.Position)) }

func (c *TicketCanvas) Dragged(ev *fyne.DragEvent) {
	if c.panning {
		c.offset = c.offset.Add(ev.Dragged)
		c.Refresh()
		return
	}
	c.last = toPt(ev.Position)
	c.ws.Move(c.last, c.shift)
	c.changed()
}

func (c *TicketCanvas) DragEnd() { c.release(c.last) }

func (c *TicketCanvas) release(p geom.Pt) {
	c.panning = false
	if c.ws.Dragging() {
		c.ws.Release(p)
		c.changed()
	}
}

// Scrolled zooms in and out.
func (c *TicketCanvas) Scrolled(ev *fyne.ScrollEvent) {
	switch {
	case ev.Scrolled.DY > 0:
		c.ws.Editor.ZoomIn()
	case ev.Scrolled.DY < 0:
		c.ws.Editor.ZoomOut()
	default:
		return
	}
	c.Refresh()
}

func (c *TicketCanvas) changed() {
	c.Refresh()
	if c.OnChanged != nil {
		c.OnChanged()
	}
}

func (c *TicketCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	frame := canvas.NewRectangle(color.White)
	frame.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	frame.StrokeWidth = 1
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels
	msg := canvas.NewText("", color.RGBA{R: 255, G: 120, B: 120, A: 255})
	msg.TextSize = 12
	return &ticketCanvasRenderer{c: c, bg: bg, frame: frame, img: img, msg: msg}
}

var (
	selColor  = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	knobColor = color.RGBA{R: 255, G: 170, B: 0, A: 255}
)

type ticketCanvasRenderer struct {
	c       *TicketCanvas
	bg      *canvas.Rectangle
	frame   *canvas.Rectangle
	img     *canvas.Image
	msg     *canvas.Text
	overlay []fyne.CanvasObject
}

func (r *ticketCanvasRenderer) Destroy()           {}
func (r *ticketCanvasRenderer) MinSize() fyne.Size { return fyne.NewSize(400, 300) }
func (r *ticketCanvasRenderer) Refresh()           { r.Layout(r.c.Size()); canvas.Refresh(r.c) }

func (r *ticketCanvasRenderer) Objects() []fyne.CanvasObject {
	objs := []fyne.CanvasObject{r.bg, r.frame, r.img, r.msg}
	return append(objs, r.overlay...)
}

func (r *ticketCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	o := r.c.origin(size)
	r.c.ws.SetOrigin(o)
	cw, ch := r.c.ws.CanvasSize()
	ticket := fyne.NewSize(float32(cw), float32(ch))
	r.frame.Resize(ticket)
	r.frame.Move(toPos(o))
	r.img.Resize(ticket)
	r.img.Move(toPos(o))

	if prev, err := r.c.ws.Preview(); err != nil {
		r.msg.Text = err.Error()
		r.msg.Move(fyne.NewPos(8, 8))
	} else {
		r.msg.Text = ""
		r.img.Image = prev
	}
	r.img.Refresh()
	r.msg.Refresh()

	r.overlay = r.overlay[:0]
	for _, b := range r.c.ws.SelectedBoxes() {
		r.overlay = append(r.overlay, selectionObjects(b)...)
	}
}

// selectionObjects draws the rotated frame, the resize handle and the
// rotation knob of b.
func selectionObjects(b Box) []fyne.CanvasObject {
	c := b.Rect.Center()
	rot := func(p geom.Pt) geom.Pt { return geom.RotateAbout(p, c, b.Rotation) }
	x0, y0, x1, y1 := b.Rect.X, b.Rect.Y, b.Rect.X+b.Rect.W, b.Rect.Y+b.Rect.H
	corners := []geom.Pt{rot(geom.Pt{X: x0, Y: y0}), rot(geom.Pt{X: x1, Y: y0}), rot(geom.Pt{X: x1, Y: y1}), rot(geom.Pt{X: x0, Y: y1})}
	var out []fyne.CanvasObject
	for i := range corners {
		out = append(out, line(corners[i], corners[(i+1)%4], selColor))
	}
	top := rot(geom.Pt{X: c.X, Y: y0})
	knob := rot(b.Knob())
	out = append(out, line(top, knob, knobColor))

	h := canvas.NewRectangle(selColor)
	h.Resize(fyne.NewSize(HandleSize, HandleSize))
	h.Move(toPos(geom.Pt{X: corners[2].X - HandleSize/2, Y: corners[2].Y - HandleSize/2}))
	k := canvas.NewCircle(knobColor)
	k.Resize(fyne.NewSize(2*KnobRadius, 2*KnobRadius))
	k.Move(toPos(geom.Pt{X: knob.X - KnobRadius, Y: knob.Y - KnobRadius}))
	return append(out, h, k)
}

func line(a, b geom.Pt, c color.Color) *canvas.Line {
	l := canvas.NewLine(c)
	l.StrokeWidth = 1
	l.Position1 = toPos(a)
	l.Position2 = toPos(b)
	return l
}

// columnPanel lists the CSV headers; tapping one drops a placeholder in the
// middle of the ticket.
type columnPanel struct {
	ws      *Workspace
	list    *widget.List
	headers []string
}

func newColumnPanel(ws *Workspace, tc *TicketCanvas) *columnPanel {
	p := &columnPanel{ws: ws}
	p.list = widget.NewList(
		func() int { return len(p.headers) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(p.headers[i]) },
	)
	p.list.OnSelected = func(id widget.ListItemID) {
		defer p.list.UnselectAll()
		if id < 0 || id >= len(p.headers) {
			return
		}
		v := ws.View()
		cw, ch := ws.CanvasSize()
		ws.DropColumn(p.headers[id], geom.Pt{X: v.Origin.X + cw/2, Y: v.Origin.Y + ch/2})
		tc.changed()
	}
	p.Refresh()
	return p
}

func (p *columnPanel) Refresh() {
	p.headers = p.ws.Editor.Dataset().Headers()
	p.list.Refresh()
}

// propertyPanel edits the single selected element.
type propertyPanel struct {
	ws      *Workspace
	win     fyne.Window
	form    *widget.Form
	id      string
	content *widget.Entry
	size    *widget.Entry
	code    *widget.Select
	onApply func()
}

func newPropertyPanel(ws *Workspace, win fyne.Window) *propertyPanel {
	p := &propertyPanel{
		ws:      ws,
		win:     win,
		content: widget.NewMultiLineEntry(),
		size:    widget.NewEntry(),
		code:    widget.NewSelect(codeTypes, nil),
	}
	p.form = widget.NewForm(
		widget.NewFormItem("Content", p.content),
		widget.NewFormItem("Font size", p.size),
		widget.NewFormItem("Code", p.code),
	)
	p.form.SubmitText = "Apply"
	p.form.OnSubmit = p.apply
	p.Refresh()
	return p
}

// Refresh loads the selected element into the form.
func (p *propertyPanel) Refresh() {
	sel := p.ws.Editor.Selection()
	el, ok := domain.Element(nil), false
	if len(sel) == 1 {
		el, ok = p.ws.Editor.ElementByID(sel[0])
	}
	if !ok {
		p.id = ""
		p.content.Disable()
		p.size.Disable()
		p.code.Disable()
		return
	}
	if el.Common().ID == p.id {
		return
	}
	p.id = el.Common().ID
	p.content.Enable()
	switch e := el.(type) {
	case *domain.TextElement:
		p.content.SetText(e.TextFormat)
		p.size.SetText(strconv.FormatFloat(e.Styles.FontSize, 'f', -1, 64))
		p.size.Enable()
		p.code.Disable()
	case *domain.CodeElement:
		p.content.SetText(e.Placeholder)
		p.size.SetText("")
		p.size.Disable()
		p.code.Enable()
		p.code.SetSelected(string(e.CodeSettings.CodeType))
	}
}

func (p *propertyPanel) apply() {
	el, ok := p.ws.Editor.ElementByID(p.id)
	if !ok {
		return
	}
	var patch domain.Patch
	switch el.(type) {
	case *domain.TextElement:
		patch.TextFormat = domain.Ptr(p.content.Text)
		if p.size.Text != "" {
			fs, err := strconv.ParseFloat(strings.TrimSpace(p.size.Text), 64)
			if err != nil || fs <= 0 {
				dialog.ShowError(fmt.Errorf("invalid font size %q", p.size.Text), p.win)
				return
			}
			patch.FontSize = domain.Ptr(fs)
		}
	case *domain.CodeElement:
		patch.Placeholder = domain.Ptr(p.content.Text)
		if p.code.Selected != "" {
			patch.CodeType = domain.Ptr(domain.CodeType(p.code.Selected))
		}
	}
	p.ws.Editor.PushHistory()
	p.ws.Editor.UpdateElement(p.id, patch)
	if p.onApply != nil {
		p.onApply()
	}
}
