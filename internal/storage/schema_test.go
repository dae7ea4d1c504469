package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ticketforge/internal/domain"
)

func TestEncodeDocumentConformsToSchema(t *testing.T) {
	for _, tpl := range domain.BuiltInTemplates() {
		data, err := EncodeDocument(tpl)
		if err != nil {
			t.Fatalf("%s: %v", tpl.ID, err)
		}
		if err := ValidateDocument(data); err != nil {
			t.Fatalf("%s: %v", tpl.ID, err)
		}
	}
	if _, err := EncodeDocument(sampleTemplate()); err != nil {
		t.Fatalf("sample: %v", err)
	}
}

func TestValidateDocumentRejects(t *testing.T) {
	cases := map[string]string{
		"missing name":   `{"ticketSettings":{"type":"ticket","width":1,"height":1,"fitMode":"cover"},"elements":[]}`,
		"bad type":       `{"name":"x","ticketSettings":{"type":"poster","width":1,"height":1,"fitMode":"cover"},"elements":[]}`,
		"bad element":    `{"name":"x","ticketSettings":{"type":"ticket","width":1,"height":1,"fitMode":"cover"},"elements":[{"type":"shape","id":"a","position":{"x":0,"y":0},"size":{"width":1,"height":1}}]}`,
		"gap too large":  `{"name":"x","ticketSettings":{"type":"ticket","width":1,"height":1,"fitMode":"cover"},"elements":[],"printSettings":{"ticketGap":50}}`,
		"zero width":     `{"name":"x","ticketSettings":{"type":"ticket","width":0,"height":1,"fitMode":"cover"},"elements":[]}`,
	}
	for name, doc := range cases {
		err := ValidateDocument([]byte(doc))
		var ve *ValidationError
		if !errors.Is(err, ErrInvalidDocument) || !errors.As(err, &ve) || len(ve.Problems) == 0 {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
	if err := ValidateDocument([]byte(`{`)); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("malformed json: %v", err)
	}
}

func TestDecodeDocumentDefaults(t *testing.T) {
	doc := `{"name":"legacy","ticketSettings":{"type":"others","width":50,"height":50,"fitMode":"contain"},
		"elements":[{"type":"barcode","id":"c1","position":{"x":1,"y":2},"size":{"width":30,"height":10},"placeholder":"{ID}"}],
		"labelBlock":{"width":30}}`
	tpl, err := DecodeDocument([]byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tpl.LabelConfig == nil || tpl.LabelConfig.LabelBlockWidth != 30 {
		t.Fatalf("label config = %+v", tpl.LabelConfig)
	}
	if tpl.PrintSettings == nil || tpl.PrintSettings.TicketGap != domain.DefaultTicketGap {
		t.Fatalf("print settings = %+v", tpl.PrintSettings)
	}
	if c, ok := tpl.Elements[0].(*domain.CodeElement); !ok || c.CodeSettings.CodeType != domain.CodeQR {
		t.Fatalf("element = %#v", tpl.Elements[0])
	}
}

func TestDocumentFileBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gala.json")
	tpl := sampleTemplate()
	if err := WriteDocument(path, tpl); err != nil {
		t.Fatalf("write: %v", err)
	}
	tpl.Name = "Gala v2"
	if err := WriteDocument(path, tpl); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(dir, BackupsDirName))
	if err != nil || len(ents) != 1 || !strings.HasPrefix(ents[0].Name(), "gala.json.") {
		t.Fatalf("backups = %v err %v", ents, err)
	}
	got, err := ReadDocument(path)
	if err != nil || got.Name != "Gala v2" {
		t.Fatalf("read = %q err %v", got.Name, err)
	}
	// a corrupt document falls back to the latest backup
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = ReadDocument(path)
	if err != nil || got.Name != "Gala" {
		t.Fatalf("backup read = %q err %v", got.Name, err)
	}
	if _, err := ReadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("missing document without backups should fail")
	}
}
