/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // background decoders
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"ticketforge/internal/domain"
)

// ErrNoImageSource is returned when a template names a background but the
// renderer has nowhere to load it from.
var ErrNoImageSource = errors.New("no image source configured")

// ImageSource loads background images by reference.
type ImageSource interface {
	Open(ref string) (image.Image, error)
}

// FileSource resolves references as data URLs or as paths relative to Dir.
type FileSource struct {
	Dir string
}

func (s FileSource) Open(ref string) (image.Image, error) {
	raw, err := s.Read(ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", refName(ref), err)
	}
	return img, nil
}

// Read returns the encoded bytes behind ref.
func (s FileSource) Read(ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		meta, payload, ok := strings.Cut(ref, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("unsupported data url")
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return raw, nil
	}
	p := ref
	if !filepath.IsAbs(p) && s.Dir != "" {
		p = filepath.Join(s.Dir, p)
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("open background: %w", err)
	}
	return raw, nil
}

func refName(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return "data url"
	}
	return filepath.Base(ref)
}

// FitRect returns where an image of size iw x ih lands inside a w x h area.
func FitRect(iw, ih, w, h int, mode domain.FitMode) image.Rectangle {
	if iw <= 0 || ih <= 0 {
		return image.Rectangle{}
	}
	sx := float64(w) / float64(iw)
	sy := float64(h) / float64(ih)
	var dw, dh float64
	switch mode {
	case domain.FitStretch:
		return image.Rect(0, 0, w, h)
	case domain.FitContain:
		s := min(sx, sy)
		dw, dh = float64(iw)*s, float64(ih)*s
	case domain.FitOriginal:
		dw, dh = float64(iw), float64(ih)
	default: // cover
		s := max(sx, sy)
		dw, dh = float64(iw)*s, float64(ih)*s
	}
	x := int((float64(w) - dw) / 2)
	y := int((float64(h) - dh) / 2)
	return image.Rect(x, y, x+int(dw+0.5), y+int(dh+0.5))
}

// drawBackground scales src into dst according to mode. Parts outside dst
// are cropped.
func drawBackground(dst draw.Image, src image.Image, mode domain.FitMode) {
	b := dst.Bounds()
	r := FitRect(src.Bounds().Dx(), src.Bounds().Dy(), b.Dx(), b.Dy(), mode).Add(b.Min)
	draw.CatmullRom.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
}
