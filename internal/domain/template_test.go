package domain

import (
	"encoding/json"
	"testing"
)

func TestWithTypeAppliesPreset(t *testing.T) {
	s := DefaultTicketSettings().WithType(TicketConventionID)
	if s.Width != 101.6 || s.Height != 152.4 {
		t.Fatalf("preset not applied: %+v", s)
	}
	s.Width, s.Height = 50, 60
	o := s.WithType(TicketOthers)
	if o.Width != 50 || o.Height != 60 || o.Type != TicketOthers {
		t.Fatalf("others should keep size: %+v", o)
	}
}

func TestLabelConfigSetters(t *testing.T) {
	c := DefaultLabelConfig()
	c.SetLabelColor("VIP", "#ff0000")
	c.SetLabelColumn("Tier")
	if len(c.LabelColors) != 0 {
		t.Fatalf("colors should reset on column change")
	}
	c.SetLabelBlockWidth(1)
	c.SetRightBlockWidth(500)
	if c.LabelBlockWidth != 5 || c.RightBlockWidth != 80 {
		t.Fatalf("widths not clamped: %+v", c)
	}
}

func TestPrintSettingsGapClamp(t *testing.T) {
	if g := DefaultPrintSettings().WithGap(-1).TicketGap; g != 0 {
		t.Fatalf("gap = %v", g)
	}
	if g := DefaultPrintSettings().WithGap(25).TicketGap; g != 20 {
		t.Fatalf("gap = %v", g)
	}
}

func TestBuiltInTemplates(t *testing.T) {
	all := BuiltInTemplates()
	if len(all) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(all))
	}
	tpl, ok := BuiltInTemplate("blank-ticket")
	if !ok || tpl.TicketSettings.Width != 226.32258 || tpl.TicketSettings.Height != 80 || !tpl.BuiltIn {
		t.Fatalf("unexpected ticket preset: %+v", tpl)
	}
	cert, _ := BuiltInTemplate("blank-certificate")
	if cert.TicketSettings.Width != 297 || cert.TicketSettings.Height != 210 {
		t.Fatalf("unexpected certificate: %+v", cert.TicketSettings)
	}
}

func TestTemplateCloneAndJSON(t *testing.T) {
	bg := "media/42"
	lc := DefaultLabelConfig()
	lc.SetLabelColumn("Tier")
	lc.SetLabelColor("VIP", "#ff0000")
	tpl := TicketTemplate{
		ID:              "user-1",
		Name:            "Gala",
		BackgroundImage: &bg,
		TicketSettings:  DefaultTicketSettings(),
		Elements:        Elements{NewTextElement(Patch{})},
		LabelConfig:     &lc,
		CSVHeaders:      []string{"Name"},
		CSVData:         []map[string]string{{"Name": "Ada"}},
	}
	cp := tpl.Clone()
	cp.LabelConfig.LabelColors["VIP"] = "#000000"
	cp.CSVData[0]["Name"] = "Bob"
	*cp.BackgroundImage = "other"
	if tpl.LabelConfig.LabelColors["VIP"] != "#ff0000" || tpl.CSVData[0]["Name"] != "Ada" || bg != "media/42" {
		t.Fatalf("clone shares state with original")
	}

	b, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got TicketTemplate
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "Gala" || len(got.Elements) != 1 || got.Labels().LabelColumn != "Tier" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Gap() != DefaultTicketGap {
		t.Fatalf("gap default = %v", got.Gap())
	}
}
