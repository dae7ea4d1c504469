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
	"time"

	"github.com/spf13/cobra"

	"ticketforge/internal/backend"
	"ticketforge/internal/config"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr, dsn string
		devTokens bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference template store over Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := backend.ServerConfig{
				Addr:      c.cfg.Server.Addr,
				DBURL:     c.cfg.Server.DBURL,
				Secret:    config.AuthSecret(),
				DevTokens: c.cfg.Server.DevTokens || devTokens,
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dsn != "" {
				cfg.DBURL = dsn
			}
			return backend.Start(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&dsn, "db", "", "Postgres DSN (default from config or "+config.EnvServerDBURL+")")
	cmd.Flags().BoolVar(&devTokens, "dev-tokens", false, "serve POST /api/auth/token without authentication (development only)")

	var (
		subject string
		ttl     time.Duration
	)
	token := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with " + config.EnvAuthSecret,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := config.AuthSecret()
			if secret == "" {
				return fmt.Errorf("%s is not set", config.EnvAuthSecret)
			}
			tok, err := backend.SignToken(secret, subject, time.Now().Add(ttl))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, tok)
			return nil
		},
	}
	token.Flags().StringVar(&subject, "subject", "cli", "token subject")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.AddCommand(token)
	return cmd
}
