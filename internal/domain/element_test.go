package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewTextElementDefaults(t *testing.T) {
	el := NewTextElement(Patch{})
	if el.Kind() != ElementText {
		t.Fatalf("kind = %q", el.Kind())
	}
	if el.Position != (Position{X: 10, Y: 10}) || el.Size != (Size{Width: 150, Height: 30}) {
		t.Fatalf("unexpected geometry: %+v", el.Base)
	}
	if el.Rotation != 0 || el.TextFormat != "{Text}" || !el.ContainInBox {
		t.Fatalf("unexpected defaults: %+v", el)
	}
	if el.Styles.FontSize != 16 || el.Styles.Color != "#000000" {
		t.Fatalf("unexpected styles: %+v", el.Styles)
	}
	if el.ID == "" {
		t.Fatalf("expected id")
	}
}

func TestNewTextElementOverrides(t *testing.T) {
	el := NewTextElement(Patch{TextFormat: Ptr("{Name}"), Rotation: Ptr(45.0)})
	if el.TextFormat != "{Name}" || el.Rotation != 45 || el.Kind() != ElementText {
		t.Fatalf("overrides not applied: %+v", el)
	}
}

func TestNewCodeElementDefaults(t *testing.T) {
	el := NewCodeElement(Patch{})
	if el.Kind() != ElementCode || el.Size != (Size{Width: 80, Height: 80}) {
		t.Fatalf("unexpected: %+v", el)
	}
	if el.Placeholder != "" || el.CodeSettings.CodeType != CodeQR {
		t.Fatalf("unexpected code defaults: %+v", el.CodeSettings)
	}
	if el.CodeSettings.Background != "#ffffff" || el.CodeSettings.Foreground != "#000000" {
		t.Fatalf("unexpected colors: %+v", el.CodeSettings)
	}
	el2 := NewCodeElement(Patch{Placeholder: Ptr("{ID}")})
	if el2.Placeholder != "{ID}" || el2.ID == el.ID {
		t.Fatalf("override or id wrong: %+v", el2)
	}
}

func TestPatchClampsAndNormalizes(t *testing.T) {
	el := NewTextElement(Patch{})
	Patch{X: Ptr(-5.0), Y: Ptr(3.0), Rotation: Ptr(-90.0), Placeholder: Ptr("ignored")}.Apply(el)
	if el.Position.X != 0 || el.Position.Y != 3 {
		t.Fatalf("position not clamped: %+v", el.Position)
	}
	if el.Rotation != 270 {
		t.Fatalf("rotation not normalized: %v", el.Rotation)
	}
}

func TestPatchRejectsNonFinite(t *testing.T) {
	el := NewTextElement(Patch{})
	Patch{X: Ptr(math.NaN()), Y: Ptr(math.Inf(-1)), Width: Ptr(math.NaN()), Height: Ptr(math.Inf(1))}.Apply(el)
	if el.Position.X != 0 || el.Position.Y != 10 {
		t.Fatalf("position = %+v", el.Position)
	}
	if el.Size.Width != 0 || el.Size.Height != 30 {
		t.Fatalf("size = %+v", el.Size)
	}
	Patch{FontSize: Ptr(math.Inf(1))}.Apply(el)
	Patch{FontSize: Ptr(math.NaN())}.Apply(el)
	if el.Styles.FontSize != 16 {
		t.Fatalf("font size = %v", el.Styles.FontSize)
	}
	if _, err := json.Marshal(el); err != nil {
		t.Fatalf("marshal after patch: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := []Element{NewTextElement(Patch{}), NewCodeElement(Patch{})}
	cp := CloneElements(orig)
	cp[0].Common().Position.X = 99
	cp[1].(*CodeElement).CodeSettings.Foreground = "#ff0000"
	if orig[0].Common().Position.X == 99 {
		t.Fatalf("clone shares text element")
	}
	if orig[1].(*CodeElement).CodeSettings.Foreground != "#000000" {
		t.Fatalf("clone shares code element")
	}
}

func TestElementsJSONRoundTrip(t *testing.T) {
	in := Elements{NewTextElement(Patch{TextFormat: Ptr("{Name}")}), NewCodeElement(Patch{CodeType: Ptr(CodeEAN13)})}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Elements
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(out))
	}
	txt, ok := out[0].(*TextElement)
	if !ok || txt.TextFormat != "{Name}" || txt.ID != in[0].Common().ID {
		t.Fatalf("text element mismatch: %+v", out[0])
	}
	code, ok := out[1].(*CodeElement)
	if !ok || code.CodeSettings.CodeType != CodeEAN13 {
		t.Fatalf("code element mismatch: %+v", out[1])
	}
}

func TestDecodeElementRejectsUnknownType(t *testing.T) {
	if _, err := DecodeElement([]byte(`{"type":"shape"}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	el, err := DecodeElement([]byte(`{"type":"code","id":"a","placeholder":"{ID}"}`))
	if err != nil {
		t.Fatalf("decode alias: %v", err)
	}
	if c := el.(*CodeElement); c.CodeSettings.CodeType != CodeQR {
		t.Fatalf("expected qr default, got %q", c.CodeSettings.CodeType)
	}
}
