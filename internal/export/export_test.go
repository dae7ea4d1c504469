package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ticketforge/internal/domain"
	"ticketforge/internal/render"
)

func testJob(n int) Job {
	tpl := domain.BuiltInTemplates()[0]
	tpl.Elements = domain.Elements{domain.NewTextElement(domain.Patch{TextFormat: domain.Ptr("{Name}")})}
	rows := make([]map[string]string, n)
	for i := range rows {
		rows[i] = map[string]string{"Name": fmt.Sprintf("Guest %d", i+1)}
	}
	return Job{
		Template: &tpl,
		Headers:  []string{"Name"},
		Rows:     rows,
		Renderer: render.New(render.Options{DPI: 10}),
	}
}

func TestEntryName(t *testing.T) {
	cases := []struct {
		in   string
		idx  int
		want string
	}{
		{"Jane Doe", 0, "Jane_Doe.png"},
		{"a/b\\c:d", 0, "a_b_c_d.png"},
		{"Zoë-1_x", 0, "Zo_-1_x.png"},
		{"", 4, "ticket_5.png"},
		{strings.Repeat("x", 80), 0, strings.Repeat("x", 50) + ".png"},
	}
	for _, c := range cases {
		if got := EntryName(c.in, c.idx); got != c.want {
			t.Fatalf("EntryName(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	u := uniqueNames{}
	got := []string{u.take("a.png"), u.take("a.png"), u.take("a.png"), u.take("b.png")}
	want := []string{"a.png", "a_2.png", "a_3.png", "b.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v", got)
		}
	}
}

func TestArchive(t *testing.T) {
	job := testJob(10)
	job.Rows[3]["Name"] = "Guest 1" // duplicate of row 0
	job.Rows[5]["Name"] = ""
	var calls []int
	var buf bytes.Buffer
	res, err := Archive(context.Background(), job, &buf, func(done, total int) {
		if total != 10 {
			t.Fatalf("total = %d", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(calls) != 10 || calls[9] != 10 {
		t.Fatalf("progress = %v", calls)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 10 || len(res.Entries) != 10 {
		t.Fatalf("entries = %d", len(zr.File))
	}
	if zr.File[0].Name != "Guest_1.png" || zr.File[3].Name != "Guest_1_2.png" || zr.File[5].Name != "ticket_6.png" {
		t.Fatalf("names = %s %s %s", zr.File[0].Name, zr.File[3].Name, zr.File[5].Name)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	img, err := png.Decode(rc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w, h := job.Renderer.Size(job.Template.TicketSettings)
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Fatalf("png size = %v", img.Bounds())
	}
}

func TestArchiveEmptyAndRowError(t *testing.T) {
	if _, err := Archive(context.Background(), testJob(0), &bytes.Buffer{}, nil); !errors.Is(err, ErrNoRows) {
		t.Fatalf("want ErrNoRows, got %v", err)
	}
	job := testJob(3)
	ref := "missing.png"
	job.Template.BackgroundImage = &ref
	job.Renderer = render.New(render.Options{DPI: 10, Images: render.FileSource{Dir: t.TempDir()}})
	_, err := Archive(context.Background(), job, &bytes.Buffer{}, nil)
	var re *RowError
	if !errors.As(err, &re) || re.Index != 0 {
		t.Fatalf("want RowError for row 0, got %v", err)
	}
}

func TestArchiveCancelBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job := testJob(20)
	res, err := Archive(ctx, job, &bytes.Buffer{}, func(done, _ int) {
		if done == 3 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	// cancellation is only seen at the end of the first chunk
	if len(res.Entries) != DefaultYieldEvery {
		t.Fatalf("entries before stop = %d", len(res.Entries))
	}
}

func TestSheetsZip(t *testing.T) {
	job := testJob(10)
	var buf bytes.Buffer
	res, err := SheetsZip(context.Background(), job, SheetOptions{CutLines: true}, &buf, nil)
	if err != nil {
		t.Fatalf("sheets: %v", err)
	}
	if len(res.Entries) != 2 || res.Entries[1] != "sheet_002.png" {
		t.Fatalf("entries = %v", res.Entries)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	img, err := png.Decode(rc)
	if err != nil {
		t.Fatal(err)
	}
	// landscape A4 at 10 DPI
	if b := img.Bounds(); b.Dx() <= b.Dy() {
		t.Fatalf("sheet should be landscape: %v", b)
	}
}

func TestSheetsPDF(t *testing.T) {
	job := testJob(3)
	var buf bytes.Buffer
	res, err := SheetsPDF(context.Background(), job, SheetOptions{}, &buf, nil)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if len(res.Entries) != 1 || !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("unexpected pdf output: %d pages, %d bytes", len(res.Entries), buf.Len())
	}
}

func TestBatchExportRemovesSheetFilesOnError(t *testing.T) {
	dir := t.TempDir()
	job := testJob(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BatchExport(ctx, job, BatchOptions{Formats: []string{FormatSheets, FormatPDF}, OutDir: dir, BaseName: "x"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("partial files left behind: %v", entries)
	}
}

func TestBatchExportPresets(t *testing.T) {
	dir := t.TempDir()
	job := testJob(2)
	job.Template.Name = "Spring Gala"
	var calls []int
	paths, err := BatchExport(context.Background(), job, BatchOptions{Preset: PresetPrint, OutDir: dir, DPIOverride: 10}, func(done, _ int) {
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if paths[FormatPDF] != filepath.Join(dir, "Spring_Gala.pdf") || paths[FormatSheets] != filepath.Join(dir, "Spring_Gala-sheets.zip") {
		t.Fatalf("paths = %v", paths)
	}
	// pdf and sheets share one pass: each row is reported once
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("progress calls = %v", calls)
	}
	for _, p := range paths {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
	if _, err := BatchExport(context.Background(), job, BatchOptions{Formats: []string{"gif"}, OutDir: dir}, nil); err == nil {
		t.Fatalf("unknown format should fail")
	}
}
