/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ticketforge/internal/backend"
	"ticketforge/internal/dataset"
	"ticketforge/internal/domain"
	"ticketforge/internal/export"
	"ticketforge/internal/render"
	"ticketforge/internal/storage"
)

type exportOptions struct {
	template string
	csv      string
	out      string
	dpi      float64
	sheets   bool
	pdf      bool
	noZip    bool
}

func (c *CLI) exportCommand() *cobra.Command {
	var o exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render one PNG per CSV row into a zip, optionally with print sheets",
		Long: `Render a template once per CSV row.

The template is a document file or the id of a library template or built-in
preset. Without --csv the data embedded in the template is used. --out names
the ticket zip; print sheets are written next to it as <name>-sheets.zip and
<name>.pdf.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.template, "template", "", "template document file or library id (required)")
	cmd.Flags().StringVar(&o.csv, "csv", "", "CSV data file")
	cmd.Flags().StringVarP(&o.out, "out", "o", "tickets.zip", "output zip")
	cmd.Flags().Float64Var(&o.dpi, "dpi", 0, "render resolution (default from config)")
	cmd.Flags().BoolVar(&o.sheets, "sheets", false, "also write A4 print sheets as PNGs in a zip")
	cmd.Flags().BoolVar(&o.pdf, "pdf", false, "also write A4 print sheets as PDF")
	cmd.Flags().BoolVar(&o.noZip, "no-zip", false, "skip the per-ticket zip")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func (c *CLI) runExport(ctx context.Context, o exportOptions) error {
	tpl, dir, err := c.resolveTemplate(ctx, o.template)
	if err != nil {
		return err
	}
	if o.csv != "" {
		f, err := os.Open(o.csv)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		ds, err := dataset.ParseReader(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", o.csv, err)
		}
		tpl.CSVHeaders = ds.Headers
		tpl.CSVData = ds.Records()
	}
	if len(tpl.CSVData) == 0 {
		return export.ErrNoRows
	}

	var formats []string
	if !o.noZip {
		formats = append(formats, export.FormatZip)
	}
	if o.sheets {
		formats = append(formats, export.FormatSheets)
	}
	if o.pdf {
		formats = append(formats, export.FormatPDF)
	}
	if len(formats) == 0 {
		return fmt.Errorf("nothing to export: --no-zip needs --sheets or --pdf")
	}
	dpi := o.dpi
	if dpi <= 0 {
		dpi = c.cfg.Export.DPI
	}
	cut := c.cfg.Export.CutLines
	images := backend.ImageSource{
		Client:   c.backendClient(),
		Fallback: render.FileSource{Dir: dir},
		Context:  ctx,
	}
	job := export.Job{
		Template:   &tpl,
		Headers:    tpl.CSVHeaders,
		Rows:       tpl.CSVData,
		YieldEvery: c.cfg.Export.YieldEvery,
	}
	opt := export.BatchOptions{
		Preset:      export.PresetName(c.cfg.Export.Preset),
		Formats:     formats,
		DPIOverride: dpi,
		CutLines:    &cut,
		OutDir:      filepath.Dir(o.out),
		BaseName:    strings.TrimSuffix(filepath.Base(o.out), filepath.Ext(o.out)),
		Images:      images,
	}
	c.log.Info("export", slog.String("template", tpl.Name), slog.Int("rows", len(job.Rows)), slog.Any("formats", formats))
	paths, err := export.BatchExport(ctx, job, opt, func(done, total int) {
		fmt.Fprintf(c.errOut, "\rrendered %d/%d", done, total)
		if done == total {
			fmt.Fprintln(c.errOut)
		}
	})
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.out, "%s\t%s\n", k, paths[k])
	}
	return nil
}

// resolveTemplate reads ref as a document file when it exists and as a
// library id otherwise. dir is where relative background paths resolve.
func (c *CLI) resolveTemplate(ctx context.Context, ref string) (domain.TicketTemplate, string, error) {
	if st, err := os.Stat(ref); err == nil && !st.IsDir() {
		tpl, err := storage.ReadDocument(ref)
		return tpl, filepath.Dir(ref), err
	}
	if tpl, ok := domain.BuiltInTemplate(ref); ok {
		return tpl, ".", nil
	}
	lib, err := c.openLibrary()
	if err != nil {
		return domain.TicketTemplate{}, "", err
	}
	defer func() { _ = lib.Close() }()
	tpl, err := lib.Get(ctx, ref)
	if err != nil {
		return tpl, "", err
	}
	return tpl, filepath.Dir(lib.Path()), nil
}
