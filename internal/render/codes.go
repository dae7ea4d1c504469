/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"github.com/boombuler/barcode/twooffive"
	"golang.org/x/image/draw"

	"ticketforge/internal/domain"
)

// Encode builds the symbol for value. Content a 1-D symbology rejects is
// encoded as Code128 instead; the returned type says which one was used.
func Encode(t domain.CodeType, value string) (barcode.Barcode, domain.CodeType, error) {
	if value == "" {
		return nil, t, fmt.Errorf("encode %s: empty value", t)
	}
	bc, err := encodeAs(t, value)
	if err == nil {
		return bc, t, nil
	}
	if t == domain.CodeQR || t == domain.CodeCode128 {
		return nil, t, fmt.Errorf("encode %s: %w", t, err)
	}
	bc, ferr := code128.Encode(value)
	if ferr != nil {
		return nil, t, fmt.Errorf("encode %s: %w (code128 fallback: %v)", t, err, ferr)
	}
	return bc, domain.CodeCode128, nil
}

func encodeAs(t domain.CodeType, v string) (barcode.Barcode, error) {
	switch t {
	case domain.CodeCode128:
		return code128.Encode(v)
	case domain.CodeCode39:
		return code39.Encode(v, false, true)
	case domain.CodeCode93:
		return code93.Encode(v, true, true)
	case domain.CodeEAN13:
		if n := len(v); n != 12 && n != 13 {
			return nil, fmt.Errorf("ean13 needs 12 or 13 digits, got %d", n)
		}
		return ean.Encode(v)
	case domain.CodeEAN8:
		if n := len(v); n != 7 && n != 8 {
			return nil, fmt.Errorf("ean8 needs 7 or 8 digits, got %d", n)
		}
		return ean.Encode(v)
	case domain.CodeCodabar:
		return codabar.Encode(codabarFrame(v))
	case domain.CodeITF:
		return twooffive.Encode(v, true)
	default:
		return qr.Encode(v, qr.M, qr.Auto)
	}
}

// codabarFrame adds A start/stop characters unless the value carries its own.
func codabarFrame(v string) string {
	isGuard := func(c byte) bool { return strings.IndexByte("ABCDabcd", c) >= 0 }
	if len(v) >= 2 && isGuard(v[0]) && isGuard(v[len(v)-1]) {
		return strings.ToUpper(v)
	}
	return "A" + v + "A"
}

// Symbol renders bc into a w x h image with the given colors. Modules are
// scaled with nearest neighbour so edges stay sharp.
func Symbol(bc barcode.Barcode, w, h int, fg, bg color.Color) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	var src image.Image = bc
	if scaled, err := barcode.Scale(bc, w, h); err == nil {
		src = scaled
	}
	tinted := image.NewRGBA(src.Bounds())
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			c := bg
			if (r+g+bl)/3 < 0x8000 {
				c = fg
			}
			tinted.Set(x, y, c)
		}
	}
	draw.NearestNeighbor.Scale(out, out.Bounds(), tinted, tinted.Bounds(), draw.Src, nil)
	return out
}
