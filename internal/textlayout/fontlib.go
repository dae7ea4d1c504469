/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is the family registered by DefaultLibrary.
const DefaultFamily = "Go"

// FontLibrary stores parsed OpenType fonts by family, weight and style.
// It is safe for concurrent use.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

var (
	defaultLibOnce sync.Once
	defaultLib     *FontLibrary
)

// DefaultLibrary returns a shared library with the Go font family in regular,
// bold and italic variants.
func DefaultLibrary() *FontLibrary {
	defaultLibOnce.Do(func() {
		lib := NewFontLibrary()
		for _, v := range []struct {
			data   []byte
			weight int
			italic bool
		}{
			{goregular.TTF, 400, false},
			{gobold.TTF, 700, false},
			{goitalic.TTF, 400, true},
			{gobolditalic.TTF, 700, true},
		} {
			// the embedded fonts are known good
			_ = lib.LoadBytes(DefaultFamily, v.weight, v.italic, v.data)
		}
		defaultLib = lib
	})
	return defaultLib
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.LoadBytes(family, weight, italic, data)
}

// LoadBytes parses an in-memory TTF/OTF font.
func (fl *FontLibrary) LoadBytes(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

// Len returns the number of registered faces.
func (fl *FontLibrary) Len() int {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return len(fl.fonts)
}

// find picks the closest registered face: exact match, then same family and
// style with the nearest weight, then any face of the family.
func (fl *FontLibrary) find(spec FontSpec) (*opentype.Font, fontKey) {
	if fl == nil {
		return nil, fontKey{}
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	want := fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}
	if f, ok := fl.fonts[want]; ok {
		return f, want
	}
	var best *opentype.Font
	var bestKey fontKey
	bestScore := -1
	for k, f := range fl.fonts {
		if k.family != spec.Family {
			continue
		}
		d := k.weight - spec.Weight
		if d < 0 {
			d = -d
		}
		score := 10000 - d
		if k.italic == spec.Italic {
			score += 10000
		}
		if score > bestScore {
			best, bestKey, bestScore = f, k, score
		}
	}
	return best, bestKey
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another
// Provider. Empty or unknown families resolve to DefaultFamily. Faces are cached per
// size; the returned faces must not be used from several goroutines at once.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider

	mu    sync.Mutex
	cache map[faceKey]cachedFace
}

type faceKey struct {
	font fontKey
	size float32
}

type cachedFace struct {
	face font.Face
	met  Metrics
}

// NewOTProvider builds a provider over lib at dpi.
func NewOTProvider(lib *FontLibrary, dpi float64) *OTProvider {
	return &OTProvider{Lib: lib, DPI: dpi}
}

func (p *OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	if spec.Family == "" {
		spec.Family = DefaultFamily
	}
	if spec.Weight == 0 {
		spec.Weight = 400
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	f, key := p.Lib.find(spec)
	if f == nil && spec.Family != DefaultFamily {
		// unknown families render in the default family
		alt := spec
		alt.Family = DefaultFamily
		f, key = p.Lib.find(alt)
	}
	if f != nil {
		ck := faceKey{font: key, size: spec.SizePt}
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.cache[ck]; ok {
			return c.face, c.met
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePt), DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			if p.cache == nil {
				p.cache = make(map[faceKey]cachedFace)
			}
			c := cachedFace{face: face, met: metricsOf(face)}
			p.cache[ck] = c
			return c.face, c.met
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
