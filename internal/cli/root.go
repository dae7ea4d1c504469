/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli builds the ticketforge command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ticketforge/internal/config"
	applog "ticketforge/internal/log"
	"ticketforge/internal/storage"
	"ticketforge/internal/version"
)

// CLI holds the state shared by all commands.
type CLI struct {
	out    io.Writer
	errOut io.Writer

	cfg   config.AppConfig
	token string
	log   *slog.Logger

	// loadConfig is replaced in tests.
	loadConfig func() (config.AppConfig, string, error)
}

func New(out, errOut io.Writer) *CLI {
	return &CLI{out: out, errOut: errOut, cfg: config.Defaults(), log: applog.WithComponent("cli"), loadConfig: config.Load}
}

// RootCommand returns the ticketforge command with all subcommands.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose bool
		envFile string
	)
	root := &cobra.Command{
		Use:          "ticketforge",
		Short:        "TicketForge composes ticket templates and batch-renders them from CSV data",
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(envFile, verbose)
		},
	}
	root.SetVersionTemplate(version.String() + "\n")
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config (ignored when missing)")

	root.AddCommand(c.versionCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.remoteCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.uiCommand())
	return root
}

// setup loads .env, the config file and the logger.
func (c *CLI) setup(envFile string, verbose bool) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, tok, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg, c.token = cfg, tok
	opts := cfg.LogOptions()
	if verbose {
		opts.Level = "debug"
	}
	applog.Init(opts)
	c.log = applog.WithComponent("cli")
	c.log.Debug("config loaded", slog.String("backend", cfg.Backend.BaseURL))
	return nil
}

// openLibrary opens the local template library from the config.
func (c *CLI) openLibrary() (*storage.Library, error) {
	path, err := c.cfg.LibraryPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenLibrary(path)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.out, version.String())
		},
	}
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, out, errOut io.Writer, args []string) error {
	root := New(out, errOut).RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
