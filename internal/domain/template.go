/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"maps"

	"ticketforge/internal/geom"
)

// TicketType selects a preset size and the print layout strategy.
type TicketType string

const (
	TicketStandard     TicketType = "ticket"
	TicketConventionID TicketType = "convention-id"
	TicketCertificate  TicketType = "certificate"
	TicketOthers       TicketType = "others"
)

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	switch t {
	case TicketStandard, TicketConventionID, TicketCertificate, TicketOthers:
		return true
	}
	return false
}

// FitMode controls how the background image fills the ticket.
type FitMode string

const (
	FitCover    FitMode = "cover"
	FitContain  FitMode = "contain"
	FitStretch  FitMode = "stretch"
	FitOriginal FitMode = "original"
)

func (f FitMode) Valid() bool {
	switch f {
	case FitCover, FitContain, FitStretch, FitOriginal:
		return true
	}
	return false
}

// TicketSettings hold the physical size of one ticket in millimeters.
type TicketSettings struct {
	Type    TicketType `json:"type"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	FitMode FitMode    `json:"fitMode"`
}

// Preset is the physical size attached to a ticket type.
type Preset struct {
	Label  string
	Width  float64
	Height float64
}

// Presets lists the sizes for the fixed ticket types. "others" keeps whatever
// size the user entered; its entry is only a starting point.
var Presets = map[TicketType]Preset{
	TicketStandard:     {Label: "Ticket", Width: 226.32258, Height: 80},
	TicketConventionID: {Label: "Convention ID", Width: 101.6, Height: 152.4},
	TicketCertificate:  {Label: "Certificate", Width: 297, Height: 210},
	TicketOthers:       {Label: "Others", Width: 100, Height: 100},
}

// DefaultTicketSettings returns the settings of the standard ticket preset.
func DefaultTicketSettings() TicketSettings {
	p := Presets[TicketStandard]
	return TicketSettings{Type: TicketStandard, Width: p.Width, Height: p.Height, FitMode: FitCover}
}

// WithType switches the ticket type and applies the preset size unless the
// type is "others".
func (s TicketSettings) WithType(t TicketType) TicketSettings {
	s.Type = t
	if t != TicketOthers {
		if p, ok := Presets[t]; ok {
			s.Width, s.Height = p.Width, p.Height
		}
	}
	return s
}

// Label block width bounds in millimeters.
const (
	MinLabelWidth     = 5.0
	MaxLabelWidth     = 80.0
	DefaultLabelWidth = 20.0
)

// LabelConfig binds a dataset column to colored blocks at the ticket edges.
type LabelConfig struct {
	LabelColumn       string            `json:"labelColumn"`
	LabelColors       map[string]string `json:"labelColors"`
	LabelBlockWidth   float64           `json:"labelBlockWidth"`
	RightBlockEnabled bool              `json:"rightBlockEnabled"`
	RightBlockWidth   float64           `json:"rightBlockWidth"`
}

// DefaultLabelConfig returns a disabled config with default widths.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		LabelColors:     map[string]string{},
		LabelBlockWidth: DefaultLabelWidth,
		RightBlockWidth: DefaultLabelWidth,
	}
}

// SetLabelColumn changes the bound column and resets the color map.
func (c *LabelConfig) SetLabelColumn(col string) {
	c.LabelColumn = col
	c.LabelColors = map[string]string{}
}

// SetLabelColor assigns a hex color to a column value.
func (c *LabelConfig) SetLabelColor(value, hex string) {
	if c.LabelColors == nil {
		c.LabelColors = map[string]string{}
	}
	c.LabelColors[value] = hex
}

func (c *LabelConfig) SetLabelBlockWidth(w float64) {
	c.LabelBlockWidth = geom.Clamp(w, MinLabelWidth, MaxLabelWidth)
}

func (c *LabelConfig) SetRightBlockWidth(w float64) {
	c.RightBlockWidth = geom.Clamp(w, MinLabelWidth, MaxLabelWidth)
}

func (c *LabelConfig) SetRightBlockEnabled(on bool) { c.RightBlockEnabled = on }

// Clone returns a copy with its own color map.
func (c LabelConfig) Clone() LabelConfig {
	c.LabelColors = maps.Clone(c.LabelColors)
	if c.LabelColors == nil {
		c.LabelColors = map[string]string{}
	}
	return c
}

// Ticket gap bounds in millimeters.
const (
	MinTicketGap     = 0.0
	MaxTicketGap     = 20.0
	DefaultTicketGap = 2.0
)

// PrintSettings control tiling on the print sheet.
type PrintSettings struct {
	TicketGap float64 `json:"ticketGap"`
}

func DefaultPrintSettings() PrintSettings { return PrintSettings{TicketGap: DefaultTicketGap} }

// WithGap returns settings with the gap clamped to [0,20].
func (p PrintSettings) WithGap(gap float64) PrintSettings {
	p.TicketGap = geom.Clamp(gap, MinTicketGap, MaxTicketGap)
	return p
}

// LabelBlock is the legacy width-only label block reference.
type LabelBlock struct {
	Width float64 `json:"width"`
}

// TicketTemplate is a saved, reusable ticket design.
type TicketTemplate struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	BuiltIn         bool                `json:"builtIn"`
	BackgroundImage *string             `json:"backgroundImage"`
	TicketSettings  TicketSettings      `json:"ticketSettings"`
	Elements        Elements            `json:"elements"`
	LabelBlock      *LabelBlock         `json:"labelBlock"`
	LabelConfig     *LabelConfig        `json:"labelConfig,omitempty"`
	PrintSettings   *PrintSettings      `json:"printSettings,omitempty"`
	CSVHeaders      []string            `json:"csvHeaders,omitempty"`
	CSVData         []map[string]string `json:"csvData,omitempty"`
}

// Clone returns a deep copy of t.
func (t TicketTemplate) Clone() TicketTemplate {
	out := t
	if t.BackgroundImage != nil {
		out.BackgroundImage = Ptr(*t.BackgroundImage)
	}
	out.Elements = Elements(CloneElements(t.Elements))
	if t.LabelBlock != nil {
		out.LabelBlock = Ptr(*t.LabelBlock)
	}
	if t.LabelConfig != nil {
		out.LabelConfig = Ptr(t.LabelConfig.Clone())
	}
	if t.PrintSettings != nil {
		out.PrintSettings = Ptr(*t.PrintSettings)
	}
	if t.CSVHeaders != nil {
		out.CSVHeaders = append([]string(nil), t.CSVHeaders...)
	}
	if t.CSVData != nil {
		out.CSVData = make([]map[string]string, len(t.CSVData))
		for i, r := range t.CSVData {
			out.CSVData[i] = maps.Clone(r)
		}
	}
	return out
}

// Gap returns the print gap or the default when unset.
func (t TicketTemplate) Gap() float64 {
	if t.PrintSettings == nil {
		return DefaultTicketGap
	}
	return t.PrintSettings.TicketGap
}

// Labels returns the label config, or a disabled default.
func (t TicketTemplate) Labels() LabelConfig {
	if t.LabelConfig != nil {
		return *t.LabelConfig
	}
	cfg := DefaultLabelConfig()
	if t.LabelBlock != nil && t.LabelBlock.Width > 0 {
		cfg.SetLabelBlockWidth(t.LabelBlock.Width)
	}
	return cfg
}

// BuiltInTemplates returns fresh copies of the immutable presets.
func BuiltInTemplates() []TicketTemplate {
	mk := func(id, name string, t TicketType) TicketTemplate {
		s := TicketSettings{FitMode: FitCover}.WithType(t)
		return TicketTemplate{ID: id, Name: name, BuiltIn: true, TicketSettings: s, Elements: Elements{}}
	}
	return []TicketTemplate{
		mk("blank-ticket", "Blank Ticket", TicketStandard),
		mk("blank-convention-id", "Blank Convention ID", TicketConventionID),
		mk("blank-certificate", "Blank Certificate", TicketCertificate),
	}
}

// BuiltInTemplate looks up a preset by id.
func BuiltInTemplate(id string) (TicketTemplate, bool) {
	for _, t := range BuiltInTemplates() {
		if t.ID == id {
			return t, true
		}
	}
	return TicketTemplate{}, false
}
