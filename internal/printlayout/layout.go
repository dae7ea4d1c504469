/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package printlayout computes how tickets tile onto A4 print sheets:
// grid size, page count, cut-line positions and per-ticket cells. All
// lengths are millimeters.
package printlayout

import (
	"math"

	"ticketforge/internal/domain"
)

// A4 page and printable margin.
const (
	PageShort = 210.0
	PageLong  = 297.0
	Margin    = 10.0
)

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Layout is the grid used to place tickets on sheets.
type Layout struct {
	TicketsPerRow  int // columns across the page
	TicketsPerCol  int // rows down the page
	TicketsPerPage int
	TotalPages     int
	Orientation    Orientation
	PageWidth      float64
	PageHeight     float64
	// Scale shrinks the grid uniformly when a fixed layout does not fit the
	// printable area at physical size. 1 means physical size.
	Scale float64
}

// fixed grids per ticket type: columns, rows, orientation
var fixed = map[domain.TicketType]struct {
	cols, rows int
	orient     Orientation
}{
	domain.TicketStandard:     {2, 4, Landscape},
	domain.TicketConventionID: {2, 2, Portrait},
	domain.TicketCertificate:  {1, 1, Landscape},
}

// Calculate returns the layout for count tickets of w×h mm separated by gap.
// Unknown types use the dynamic grid of "others".
func Calculate(w, h, gap float64, t domain.TicketType, count int) Layout {
	gap = max(0, gap)
	var l Layout
	if f, ok := fixed[t]; ok {
		l.TicketsPerRow, l.TicketsPerCol, l.Orientation = f.cols, f.rows, f.orient
	} else {
		l.Orientation = Portrait
		if w > h {
			l.Orientation = Landscape
		}
		pw, ph := pageSize(l.Orientation)
		l.TicketsPerRow = perAxis(pw-2*Margin, w, gap)
		l.TicketsPerCol = perAxis(ph-2*Margin, h, gap)
	}
	l.PageWidth, l.PageHeight = pageSize(l.Orientation)
	l.TicketsPerPage = l.TicketsPerRow * l.TicketsPerCol
	if count > 0 && l.TicketsPerPage > 0 {
		l.TotalPages = (count + l.TicketsPerPage - 1) / l.TicketsPerPage
	}
	l.Scale = fitScale(l, w, h, gap)
	return l
}

func pageSize(o Orientation) (w, h float64) {
	if o == Landscape {
		return PageLong, PageShort
	}
	return PageShort, PageLong
}

func perAxis(avail, size, gap float64) int {
	if size <= 0 {
		return 1
	}
	n := int(math.Floor((avail + gap) / (size + gap)))
	return max(1, n)
}

func fitScale(l Layout, w, h, gap float64) float64 {
	gridW := float64(l.TicketsPerRow)*(w+gap) - gap
	gridH := float64(l.TicketsPerCol)*(h+gap) - gap
	s := 1.0
	if gridW > 0 {
		s = min(s, (l.PageWidth-2*Margin)/gridW)
	}
	if gridH > 0 {
		s = min(s, (l.PageHeight-2*Margin)/gridH)
	}
	if s <= 0 || math.IsNaN(s) {
		return 1
	}
	return s
}

// CutLines are guide positions: Vertical holds x coordinates and Horizontal
// y coordinates, both at physical size.
type CutLines struct {
	Vertical   []float64
	Horizontal []float64
}

// CutLinePositions puts a line at the middle of every gap and at the outer
// edges of the grid: margin + i*(size+gap) - gap/2.
func CutLinePositions(w, h, gap float64, l Layout) CutLines {
	var c CutLines
	for i := 0; i <= l.TicketsPerRow; i++ {
		c.Vertical = append(c.Vertical, Margin+float64(i)*(w+gap)-gap/2)
	}
	for i := 0; i <= l.TicketsPerCol; i++ {
		c.Horizontal = append(c.Horizontal, Margin+float64(i)*(h+gap)-gap/2)
	}
	return c
}

// Cell locates one ticket on the sheets.
type Cell struct {
	Page, Column, Row int
	// X and Y are the top-left corner at physical size.
	X, Y float64
}

// CellAt maps the zero-based ticket index to its cell, filling rows left to
// right, then pages.
func CellAt(l Layout, w, h, gap float64, index int) Cell {
	if l.TicketsPerPage <= 0 || index < 0 {
		return Cell{}
	}
	c := Cell{Page: index / l.TicketsPerPage}
	slot := index % l.TicketsPerPage
	c.Row, c.Column = slot/l.TicketsPerRow, slot%l.TicketsPerRow
	c.X = Margin + float64(c.Column)*(w+gap)
	c.Y = Margin + float64(c.Row)*(h+gap)
	return c
}

// Place maps a physical-size coordinate onto the sheet, applying the layout
// scale around the top-left margin.
func (l Layout) Place(v float64) float64 {
	s := l.Scale
	if s <= 0 {
		s = 1
	}
	return Margin + (v-Margin)*s
}
