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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ticketforge/internal/storage"
)

func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Manage the local template library",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List built-in presets and saved templates",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withLibrary(cmd.Context(), c.listTemplates)
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a template document as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *storage.Library) error {
					tpl, err := lib.Get(ctx, args[0])
					if err != nil {
						return err
					}
					doc, err := storage.EncodeDocument(tpl)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.out, string(doc))
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *storage.Library) error {
					if err := lib.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(c.out, "deleted", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Validate a template document and save it into the library",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tpl, err := storage.ReadDocument(args[0])
				if err != nil {
					return err
				}
				return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *storage.Library) error {
					saved, err := lib.Save(ctx, tpl)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.out, "imported %s as %s\n", saved.Name, saved.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "export <id> <file>",
			Short: "Write a template as a document file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *storage.Library) error {
					tpl, err := lib.Get(ctx, args[0])
					if err != nil {
						return err
					}
					return storage.WriteDocument(args[1], tpl)
				})
			},
		},
		&cobra.Command{
			Use:   "snapshots <id>",
			Short: "List autosave snapshots (use \"" + storage.UnsavedID + "\" for never saved documents)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *storage.Library) error {
					snaps, err := lib.Snapshots(ctx, args[0], storage.MaxSnapshots)
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(snaps))
					for _, s := range snaps {
						rows = append(rows, []string{s.At.Local().Format(time.DateTime), s.Template.Name, strconv.Itoa(len(s.Template.Elements))})
					}
					return writeTable(c.out, []string{"TIME", "NAME", "ELEMENTS"}, rows)
				})
			},
		},
	)
	return cmd
}

func (c *CLI) withLibrary(ctx context.Context, fn func(context.Context, *storage.Library) error) error {
	lib, err := c.openLibrary()
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()
	return fn(ctx, lib)
}

func (c *CLI) listTemplates(ctx context.Context, lib *storage.Library) error {
	sums, err := lib.List(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		updated := "built-in"
		if !s.BuiltIn {
			updated = s.UpdatedAt.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{s.ID, s.Name, string(s.Type), updated})
	}
	return writeTable(c.out, []string{"ID", "NAME", "TYPE", "UPDATED"}, rows)
}
