/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"ticketforge/internal/render"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetTickets PresetName = "tickets"
	PresetPrint   PresetName = "print"
)

// Output formats understood by BatchExport.
const (
	FormatZip    = "zip"    // one PNG per row
	FormatSheets = "sheets" // PNG print sheets in a zip
	FormatPDF    = "pdf"    // print sheets as PDF
)

// BatchOptions controls a multi-format export of one job.
//
// Files are written into OutDir as <base>.zip, <base>-sheets.zip and
// <base>.pdf where base defaults to the template name.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // empty means preset defaults
	DPIOverride float64  // when > 0 replaces the job renderer
	CutLines    *bool    // when set, overrides the preset default
	OutDir      string
	BaseName    string
	Images      render.ImageSource
}

// BatchExport runs every requested format and returns the written paths by
// format.
func BatchExport(ctx context.Context, job Job, opt BatchOptions, progress Progress) (map[string]string, error) {
	if job.Template == nil {
		return nil, fmt.Errorf("template is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	if opt.DPIOverride > 0 || job.Renderer == nil {
		job.Renderer = render.New(render.Options{DPI: opt.DPIOverride, Images: opt.Images})
	}
	cut := presetCutLines(opt.Preset)
	if opt.CutLines != nil {
		cut = *opt.CutLines
	}
	base := opt.BaseName
	if base == "" {
		base = strings.TrimSuffix(EntryName(job.Template.Name, 0), ".png")
	}
	out := make(map[string]string, len(formats))
	var sheets []sheetTarget
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case FormatZip:
			path := filepath.Join(opt.OutDir, base+".zip")
			if _, err := ArchiveFile(ctx, job, path, progress); err != nil {
				return out, fmt.Errorf("%s export: %w", f, err)
			}
			out[f] = path
		case FormatSheets:
			sheets = append(sheets, sheetTarget{format: f, path: filepath.Join(opt.OutDir, base+"-sheets.zip")})
		case FormatPDF:
			sheets = append(sheets, sheetTarget{format: f, path: filepath.Join(opt.OutDir, base+".pdf")})
		default:
			return out, fmt.Errorf("unknown format: %s", f)
		}
	}
	if len(sheets) == 0 {
		return out, nil
	}
	// sheets and pdf share one render pass
	if err := writeSheetFiles(ctx, job, SheetOptions{CutLines: cut}, sheets, progress); err != nil {
		names := make([]string, len(sheets))
		for i, t := range sheets {
			names[i] = t.format
		}
		return out, fmt.Errorf("%s export: %w", strings.Join(names, "+"), err)
	}
	for _, t := range sheets {
		out[t.format] = t.path
	}
	return out, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{FormatPDF, FormatSheets}
	default:
		return []string{FormatZip}
	}
}

func presetCutLines(p PresetName) bool {
	return p == PresetPrint
}
