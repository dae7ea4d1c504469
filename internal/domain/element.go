/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the placeable elements of a ticket. Elements are a closed
// set: *TextElement and *CodeElement. Consumers switch on the concrete type.

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"ticketforge/internal/geom"
)

// ElementType is the serialized discriminator of an element.
type ElementType string

const (
	ElementText ElementType = "text"
	// ElementCode is stored as "qr" for compatibility with existing documents,
	// even when the symbology is a 1-D barcode.
	ElementCode ElementType = "qr"
)

// Position is the top-left corner of an element in millimeters.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the extent of an element in millimeters.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Base holds the fields every element shares.
type Base struct {
	ID           string   `json:"id"`
	Position     Position `json:"position"`
	Size         Size     `json:"size"`
	Rotation     float64  `json:"rotation"` // degrees, [0,360)
	ContainInBox bool     `json:"containInBox"`
}

// Rect returns the element bounds in millimeters.
func (b *Base) Rect() geom.Rect {
	return geom.R(b.Position.X, b.Position.Y, b.Size.Width, b.Size.Height)
}

// Center returns the element center in millimeters.
func (b *Base) Center() geom.Pt { return b.Rect().Center() }

// Element is implemented only by *TextElement and *CodeElement.
type Element interface {
	Common() *Base
	Kind() ElementType
	Clone() Element
	isElement()
}

// Horizontal and vertical text alignment.
type (
	Align         string
	VerticalAlign string
)

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"

	VAlignTop    VerticalAlign = "top"
	VAlignCenter VerticalAlign = "center"
	VAlignBottom VerticalAlign = "bottom"
)

// TextStyles describe how a text element is drawn.
type TextStyles struct {
	FontSize      float64       `json:"fontSize"` // points
	FontWeight    string        `json:"fontWeight,omitempty"`
	FontFamily    string        `json:"fontFamily,omitempty"`
	Color         string        `json:"color"`
	Align         Align         `json:"textAlign,omitempty"`
	VerticalAlign VerticalAlign `json:"verticalAlign,omitempty"`
}

// Bold reports whether the weight asks for a heavy face.
func (s TextStyles) Bold() bool {
	switch s.FontWeight {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// TextElement renders a formatted string built from a template like "{Name}".
type TextElement struct {
	Base
	TextFormat string     `json:"textFormat"`
	Styles     TextStyles `json:"styles"`
}

func (e *TextElement) Common() *Base     { return &e.Base }
func (e *TextElement) Kind() ElementType { return ElementText }
func (e *TextElement) isElement()        {}

func (e *TextElement) Clone() Element {
	c := *e
	return &c
}

// CodeType names a machine-readable symbology.
type CodeType string

const (
	CodeQR      CodeType = "qr"
	CodeCode128 CodeType = "code128"
	CodeCode39  CodeType = "code39"
	CodeCode93  CodeType = "code93"
	CodeEAN13   CodeType = "ean13"
	CodeEAN8    CodeType = "ean8"
	CodeCodabar CodeType = "codabar"
	CodeITF     CodeType = "itf"
)

// Valid reports whether t is a known symbology.
func (t CodeType) Valid() bool {
	switch t {
	case CodeQR, CodeCode128, CodeCode39, CodeCode93, CodeEAN13, CodeEAN8, CodeCodabar, CodeITF:
		return true
	}
	return false
}

// IsLinear reports whether t is a one-dimensional barcode.
func (t CodeType) IsLinear() bool { return t.Valid() && t != CodeQR }

// CodeSettings configure symbology and colors of a code element.
type CodeSettings struct {
	CodeType   CodeType `json:"codeType"`
	Foreground string   `json:"foreground"`
	Background string   `json:"background"`
	// ShowValue prints the encoded value under 1-D barcodes.
	ShowValue bool `json:"showValue"`
}

// CodeElement renders a QR code or barcode for a single bound value.
type CodeElement struct {
	Base
	Placeholder  string       `json:"placeholder"`
	CodeSettings CodeSettings `json:"codeSettings"`
}

func (e *CodeElement) Common() *Base     { return &e.Base }
func (e *CodeElement) Kind() ElementType { return ElementCode }
func (e *CodeElement) isElement()        {}

func (e *CodeElement) Clone() Element {
	c := *e
	return &c
}

func (e *TextElement) MarshalJSON() ([]byte, error) {
	type plain TextElement
	return json.Marshal(struct {
		Type ElementType `json:"type"`
		*plain
	}{ElementText, (*plain)(e)})
}

func (e *CodeElement) MarshalJSON() ([]byte, error) {
	type plain CodeElement
	return json.Marshal(struct {
		Type ElementType `json:"type"`
		*plain
	}{ElementCode, (*plain)(e)})
}

// Elements is an ordered element list that round-trips through JSON.
type Elements []Element

func (es *Elements) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Elements, 0, len(raws))
	for i, raw := range raws {
		el, err := DecodeElement(raw)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, el)
	}
	*es = out
	return nil
}

// DecodeElement decodes a single element by its "type" field. "code" and
// "barcode" are accepted as aliases of "qr".
func DecodeElement(raw []byte) (Element, error) {
	var head struct {
		Type ElementType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case ElementText:
		var t TextElement
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case ElementCode, "code", "barcode":
		var c CodeElement
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		if c.CodeSettings.CodeType == "" {
			c.CodeSettings.CodeType = CodeQR
		}
		return &c, nil
	default:
		return nil, fmt.Errorf("unknown element type %q", head.Type)
	}
}

// CloneElements returns a deep copy of els.
func CloneElements(els []Element) []Element {
	if els == nil {
		return nil
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return out
}

// NewID returns a fresh element identifier.
func NewID() string { return uuid.NewString() }

// NewTextElement builds a text element from defaults with p merged on top.
func NewTextElement(p Patch) *TextElement {
	e := &TextElement{
		Base: Base{
			Position:     Position{X: 10, Y: 10},
			Size:         Size{Width: 150, Height: 30},
			ContainInBox: true,
		},
		TextFormat: "{Text}",
		Styles: TextStyles{
			FontSize:      16,
			FontWeight:    "normal",
			Color:         "#000000",
			Align:         AlignLeft,
			VerticalAlign: VAlignTop,
		},
	}
	p.Apply(e)
	e.ID = NewID()
	return e
}

// NewCodeElement builds a QR/barcode element from defaults with p merged on top.
func NewCodeElement(p Patch) *CodeElement {
	e := &CodeElement{
		Base: Base{
			Position: Position{X: 10, Y: 10},
			Size:     Size{Width: 80, Height: 80},
		},
		CodeSettings: CodeSettings{
			CodeType:   CodeQR,
			Foreground: "#000000",
			Background: "#ffffff",
			ShowValue:  true,
		},
	}
	p.Apply(e)
	e.ID = NewID()
	return e
}
