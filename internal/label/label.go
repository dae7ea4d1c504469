/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package label resolves the colored side blocks drawn on a ticket for the
// value of a chosen dataset column.
package label

import "ticketforge/internal/domain"

// FallbackColor is used for values without an assigned color.
const FallbackColor = "#cccccc"

// Config is the label configuration stored on a template.
type Config = domain.LabelConfig

// Block describes the blocks to draw for one row. Widths are in mm.
type Block struct {
	Left         float64
	Width        float64
	Color        string
	Value        string
	RightEnabled bool
	RightWidth   float64
}

// Resolve returns the block for row, or nil when no column is configured or
// the row has no value for it.
func Resolve(row map[string]string, cfg Config) *Block {
	if cfg.LabelColumn == "" {
		return nil
	}
	v := row[cfg.LabelColumn]
	if v == "" {
		return nil
	}
	color := cfg.LabelColors[v]
	if color == "" {
		color = FallbackColor
	}
	return &Block{
		Left:         0,
		Width:        cfg.LabelBlockWidth,
		Color:        color,
		Value:        v,
		RightEnabled: cfg.RightBlockEnabled,
		RightWidth:   cfg.RightBlockWidth,
	}
}
