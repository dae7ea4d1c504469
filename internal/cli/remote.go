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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ticketforge/internal/backend"
	"ticketforge/internal/config"
	"ticketforge/internal/render"
	"ticketforge/internal/storage"
)

// backendClient builds a document store client from the config and the
// saved token.
func (c *CLI) backendClient() *backend.Client {
	cl := backend.NewClient(c.cfg.Backend.BaseURL, c.token)
	cl.Configure(c.cfg.Backend.Timeout(), c.cfg.Backend.TLSInsecure)
	return cl
}

func (c *CLI) remoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with templates in the remote document store",
	}

	var lp backend.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List remote templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := c.backendClient().ListTemplates(cmd.Context(), lp)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Docs))
			for _, d := range page.Docs {
				rows = append(rows, []string{
					backend.RemoteIDPrefix + strconv.FormatInt(d.ID, 10), d.Name, string(d.TicketSettings.Type),
					strconv.Itoa(len(d.Elements)), d.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			if err := writeTable(c.out, []string{"ID", "NAME", "TYPE", "ELEMENTS", "UPDATED"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "page %d of %d (%d total)\n", page.Page, page.TotalPages, page.TotalDocs)
			return nil
		},
	}
	list.Flags().IntVar(&lp.Limit, "limit", backend.DefaultListLimit, "page size")
	list.Flags().IntVar(&lp.Page, "page", 1, "page number")
	list.Flags().StringVar(&lp.Sort, "sort", "", "sort field, prefix with - for descending (e.g. -updatedAt)")

	var save bool
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a remote template and print it, or save it into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRemoteID(args[0])
			if err != nil {
				return err
			}
			doc, err := c.backendClient().GetTemplate(cmd.Context(), id)
			if err != nil {
				return err
			}
			tpl := doc.ToTemplate(c.cfg.Backend.BaseURL)
			if !save {
				out, err := storage.EncodeDocument(tpl)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, string(out))
				return err
			}
			return c.withLibrary(cmd.Context(), func(ctx context.Context, lib *storage.Library) error {
				saved, err := lib.Save(ctx, tpl)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "saved %s as %s\n", saved.Name, saved.ID)
				return nil
			})
		},
	}
	get.Flags().BoolVar(&save, "save", false, "save into the local library")

	push := &cobra.Command{
		Use:   "push <template>",
		Short: "Upload a template document or library template, including its background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, dir, err := c.resolveTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := c.backendClient().PushTemplate(cmd.Context(), tpl, render.FileSource{Dir: dir})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "pushed %s as %s%d\n", doc.Name, backend.RemoteIDPrefix, doc.ID)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a remote template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRemoteID(args[0])
			if err != nil {
				return err
			}
			if err := c.backendClient().DeleteTemplate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "deleted", args[0])
			return nil
		},
	}

	login := &cobra.Command{
		Use:   "login <token>",
		Short: "Store the backend bearer token in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveToken(strings.TrimSpace(args[0])); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintln(c.out, "token saved")
			return nil
		},
	}
	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored backend token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.DeleteToken()
		},
	}

	cmd.AddCommand(list, get, push, del, login, logout)
	return cmd
}

// parseRemoteID accepts "remote-<n>" and plain numbers.
func parseRemoteID(s string) (int64, error) {
	if id, ok := backend.RemoteID(s); ok {
		return id, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid remote template id %q", s)
	}
	return id, nil
}
