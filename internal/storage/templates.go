/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ticketforge/internal/domain"
)

var (
	ErrNotFound = errors.New("template not found")
	ErrReadOnly = errors.New("built-in templates are read-only")
)

// UserIDPrefix starts the id of every template saved by the user.
const UserIDPrefix = "user-"

// Summary is one entry of List.
type Summary struct {
	ID        string
	Name      string
	Type      domain.TicketType
	BuiltIn   bool
	UpdatedAt time.Time
}

// language=SQL
// dialect=SQLite
const (
	listTemplatesSQL  = `SELECT id, name, ticket_type, updated_at FROM templates ORDER BY updated_at DESC, id`
	getTemplateSQL    = `SELECT doc FROM templates WHERE id = ?`
	existsTemplateSQL = `SELECT COUNT(*) FROM templates WHERE id = ?`
	upsertTemplateSQL = `INSERT INTO templates(id, name, ticket_type, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, ticket_type = excluded.ticket_type, doc = excluded.doc, updated_at = excluded.updated_at`
	deleteTemplateSQL = `DELETE FROM templates WHERE id = ?`
)

// List returns the built-in presets followed by user templates, most
// recently updated first.
func (lib *Library) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	for _, t := range domain.BuiltInTemplates() {
		out = append(out, Summary{ID: t.ID, Name: t.Name, Type: t.TicketSettings.Type, BuiltIn: true})
	}
	rows, err := lib.db.QueryContext(ctx, listTemplatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s Summary
		var typ, ts string
		if err := rows.Scan(&s.ID, &s.Name, &typ, &ts); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		s.Type = domain.TicketType(typ)
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns a deep copy of the template with id.
func (lib *Library) Get(ctx context.Context, id string) (domain.TicketTemplate, error) {
	if tpl, ok := domain.BuiltInTemplate(id); ok {
		return tpl, nil
	}
	var doc string
	err := lib.db.QueryRowContext(ctx, getTemplateSQL, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TicketTemplate{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.TicketTemplate{}, fmt.Errorf("get template %s: %w", id, err)
	}
	tpl, err := DecodeDocument([]byte(doc))
	if err != nil {
		return domain.TicketTemplate{}, fmt.Errorf("template %s: %w", id, err)
	}
	tpl.ID = id
	return tpl, nil
}

// Save stores tpl and returns it as saved. A template without id, or one
// based on a built-in preset, gets a fresh user-<unixmillis> id.
func (lib *Library) Save(ctx context.Context, tpl domain.TicketTemplate) (domain.TicketTemplate, error) {
	tpl = tpl.Clone()
	if _, builtin := domain.BuiltInTemplate(tpl.ID); tpl.ID == "" || builtin || tpl.BuiltIn {
		id, err := lib.newID(ctx)
		if err != nil {
			return tpl, err
		}
		tpl.ID = id
	}
	tpl.BuiltIn = false
	doc, err := EncodeDocument(tpl)
	if err != nil {
		return tpl, err
	}
	now := lib.now().UTC().Format(time.RFC3339Nano)
	if _, err := lib.db.ExecContext(ctx, upsertTemplateSQL, tpl.ID, tpl.Name, string(tpl.TicketSettings.Type), string(doc), now, now); err != nil {
		return tpl, fmt.Errorf("save template %s: %w", tpl.ID, err)
	}
	lib.log.Info("template saved", slog.String("id", tpl.ID), slog.String("name", tpl.Name))
	return tpl, nil
}

func (lib *Library) newID(ctx context.Context) (string, error) {
	ms := lib.now().UnixMilli()
	for {
		id := UserIDPrefix + strconv.FormatInt(ms, 10)
		var n int
		if err := lib.db.QueryRowContext(ctx, existsTemplateSQL, id).Scan(&n); err != nil {
			return "", fmt.Errorf("check template id: %w", err)
		}
		if n == 0 {
			return id, nil
		}
		ms++
	}
}

// Delete removes a user template and its snapshots.
func (lib *Library) Delete(ctx context.Context, id string) error {
	if _, ok := domain.BuiltInTemplate(id); ok {
		return fmt.Errorf("%w: %s", ErrReadOnly, id)
	}
	res, err := lib.db.ExecContext(ctx, deleteTemplateSQL, id)
	if err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := lib.db.ExecContext(ctx, deleteSnapshotsSQL, id); err != nil {
		lib.log.Warn("drop snapshots failed", slog.String("id", id), slog.Any("err", err))
	}
	lib.log.Info("template deleted", slog.String("id", id))
	return nil
}
