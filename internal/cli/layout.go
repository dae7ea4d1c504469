/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ticketforge/internal/domain"
	"ticketforge/internal/printlayout"
)

// layoutCommand prints the print sheet layout for a ticket size.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		width, height float64
		gap           float64
		ticketType    string
		count         int
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show how tickets are tiled onto A4 sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("gap") {
				gap = c.cfg.Export.TicketGap
			}
			t := domain.TicketType(ticketType)
			if !t.Valid() {
				return fmt.Errorf("unknown ticket type %q", ticketType)
			}
			if width <= 0 || height <= 0 {
				return fmt.Errorf("width and height must be positive")
			}
			if count < 0 {
				return fmt.Errorf("count must not be negative")
			}
			c.printLayout(width, height, gap, t, count)
			return nil
		},
	}
	def := domain.DefaultTicketSettings()
	cmd.Flags().Float64Var(&width, "width", def.Width, "ticket width in mm")
	cmd.Flags().Float64Var(&height, "height", def.Height, "ticket height in mm")
	cmd.Flags().Float64Var(&gap, "gap", domain.DefaultTicketGap, "gap between tickets in mm (default from config)")
	cmd.Flags().StringVarP(&ticketType, "type", "t", string(def.Type), "ticket type: ticket, convention-id, certificate, others")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of tickets")
	return cmd
}

func (c *CLI) printLayout(w, h, gap float64, t domain.TicketType, count int) {
	l := printlayout.Calculate(w, h, gap, t, count)
	cuts := printlayout.CutLinePositions(w, h, gap, l)
	fmt.Fprintf(c.out, "orientation:  %s (%.0f x %.0f mm)\n", l.Orientation, l.PageWidth, l.PageHeight)
	fmt.Fprintf(c.out, "grid:         %d x %d (%d per page)\n", l.TicketsPerRow, l.TicketsPerCol, l.TicketsPerPage)
	fmt.Fprintf(c.out, "pages:        %d\n", l.TotalPages)
	fmt.Fprintf(c.out, "scale:        %.3f\n", l.Scale)
	fmt.Fprintf(c.out, "cut lines:    %d vertical, %d horizontal\n", len(cuts.Vertical), len(cuts.Horizontal))
	if len(cuts.Vertical) > 0 {
		fmt.Fprintf(c.out, "first cut:    %g mm\n", cuts.Vertical[0])
	}
}
