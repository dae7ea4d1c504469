/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"ticketforge/internal/dataset"
	"ticketforge/internal/domain"
)

// Ticket settings

func (e *Editor) TicketSettings() domain.TicketSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetTicketType switches type; fixed types apply their preset size.
func (e *Editor) SetTicketType(t domain.TicketType) {
	e.mutate(func() bool {
		e.settings = e.settings.WithType(t)
		return true
	})
}

// SetCustomSize sets the ticket size in mm. Non-positive values are ignored.
func (e *Editor) SetCustomSize(w, h float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return e.mutate(func() bool {
		e.settings.Width, e.settings.Height = w, h
		return true
	})
}

func (e *Editor) SetFitMode(m domain.FitMode) bool {
	if !m.Valid() {
		return false
	}
	return e.mutate(func() bool {
		e.settings.FitMode = m
		return true
	})
}

// Background returns the background image reference or nil.
func (e *Editor) Background() *string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.background == nil {
		return nil
	}
	return domain.Ptr(*e.background)
}

// SetBackground sets or, with nil, clears the background reference.
func (e *Editor) SetBackground(ref *string) {
	var cp *string
	if ref != nil {
		cp = domain.Ptr(*ref)
	}
	e.mutate(func() bool {
		e.background = cp
		return true
	})
}

// Label blocks

func (e *Editor) LabelConfig() domain.LabelConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.labels.Clone()
}

func (e *Editor) SetLabelColumn(col string) {
	e.mutate(func() bool { e.labels.SetLabelColumn(col); return true })
}

func (e *Editor) SetLabelColor(value, hex string) {
	e.mutate(func() bool { e.labels.SetLabelColor(value, hex); return true })
}

func (e *Editor) SetLabelBlockWidth(w float64) {
	e.mutate(func() bool { e.labels.SetLabelBlockWidth(w); return true })
}

func (e *Editor) SetRightBlockEnabled(on bool) {
	e.mutate(func() bool { e.labels.SetRightBlockEnabled(on); return true })
}

func (e *Editor) SetRightBlockWidth(w float64) {
	e.mutate(func() bool { e.labels.SetRightBlockWidth(w); return true })
}

// UniqueLabelValues lists the values of the label column in the bound dataset.
func (e *Editor) UniqueLabelValues() []string {
	col := e.LabelConfig().LabelColumn
	return e.data.Current().UniqueValues(col)
}

// Print settings

func (e *Editor) PrintSettings() domain.PrintSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.print
}

// SetTicketGap sets the print gap, clamped to [0,20] mm.
func (e *Editor) SetTicketGap(gap float64) float64 {
	var out float64
	e.mutate(func() bool {
		e.print = e.print.WithGap(gap)
		out = e.print.TicketGap
		return true
	})
	return out
}

// Documents

// Template assembles the current state into a template document named name.
// The id of the loaded template is kept.
func (e *Editor) Template(name string) domain.TicketTemplate {
	ds := e.data.Current()
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "" {
		name = e.name
	}
	tpl := domain.TicketTemplate{
		ID:             e.templateID,
		Name:           name,
		TicketSettings: e.settings,
		Elements:       domain.Elements(domain.CloneElements(e.elements)),
		LabelConfig:    domain.Ptr(e.labels.Clone()),
		PrintSettings:  domain.Ptr(e.print),
	}
	if tpl.Elements == nil {
		tpl.Elements = domain.Elements{}
	}
	if e.background != nil {
		tpl.BackgroundImage = domain.Ptr(*e.background)
	}
	if e.labels.LabelColumn != "" {
		tpl.LabelBlock = &domain.LabelBlock{Width: e.labels.LabelBlockWidth}
	}
	if ds != nil {
		c := ds.Clone()
		tpl.CSVHeaders = c.Headers
		tpl.CSVData = c.Records()
	}
	return tpl
}

// Load replaces the whole editor state with tpl, clears history and selection
// and leaves the document clean.
func (e *Editor) Load(tpl domain.TicketTemplate) {
	tpl = tpl.Clone()
	if len(tpl.CSVHeaders) > 0 {
		e.data.Set(dataset.FromRecords(tpl.CSVHeaders, tpl.CSVData))
	} else {
		e.data.Clear()
	}
	e.mu.Lock()
	e.templateID = tpl.ID
	e.name = tpl.Name
	e.settings = tpl.TicketSettings
	if e.settings.FitMode == "" {
		e.settings.FitMode = domain.FitCover
	}
	e.background = tpl.BackgroundImage
	e.elements = tpl.Elements
	e.labels = tpl.Labels().Clone()
	e.print = domain.DefaultPrintSettings().WithGap(tpl.Gap())
	e.selection = nil
	e.dirty = false
	e.mu.Unlock()
	e.hist.Clear()
	if e.opts.OnDirty != nil {
		e.opts.OnDirty(false)
	}
	e.log.Info("template loaded", slog.String("id", tpl.ID), slog.String("name", tpl.Name), slog.Int("elements", len(tpl.Elements)))
}

// SetTemplateID records the id assigned by a store after saving.
func (e *Editor) SetTemplateID(id string) {
	e.mu.Lock()
	e.templateID = id
	e.mu.Unlock()
}
