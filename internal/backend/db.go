/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ticketforge/internal/domain"
	applog "ticketforge/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by a Store for unknown ids.
var ErrNotFound = errors.New("not found")

// ListQuery selects a window of templates. SortField is a column name from
// sortColumns.
type ListQuery struct {
	Limit     int
	Offset    int
	SortField string
	Desc      bool
}

// Store persists template and media documents for the Server.
type Store interface {
	ListTemplates(ctx context.Context, q ListQuery) ([]TemplateDoc, int, error)
	GetTemplate(ctx context.Context, id int64) (TemplateDoc, error)
	CreateTemplate(ctx context.Context, doc TemplateDoc) (TemplateDoc, error)
	UpdateTemplate(ctx context.Context, id int64, doc TemplateDoc) (TemplateDoc, error)
	DeleteTemplate(ctx context.Context, id int64) (TemplateDoc, error)
	CreateMedia(ctx context.Context, m Media, data []byte) (Media, error)
	MediaFile(ctx context.Context, id int64) (Media, []byte, error)
	Ping(ctx context.Context) error
}

// sortColumns maps API sort fields to ticket_templates columns.
var sortColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// PGStore is a Store on Postgres through the pgx database/sql driver.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects to dsn and applies the embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const selectTemplateSQL = `SELECT t.id, t.name,
	t.ticket_settings_type::text, t.ticket_settings_width::float8, t.ticket_settings_height::float8, t.ticket_settings_fit_mode::text,
	t.elements,
	t.label_config_label_column, t.label_config_label_colors, t.label_config_label_block_width::float8,
	t.label_config_right_block_enabled, t.label_config_right_block_width::float8,
	t.print_settings_ticket_gap::float8,
	t.csv_headers, t.csv_data, t.created_at, t.updated_at,
	m.id, m.alt, m.filename, m.mime_type, m.filesize, m.width, m.height
FROM ticket_templates t LEFT JOIN media m ON m.id = t.background_image_id`

const insertTemplateSQL = `INSERT INTO ticket_templates (name, background_image_id,
	ticket_settings_type, ticket_settings_width, ticket_settings_height, ticket_settings_fit_mode,
	elements, label_config_label_column, label_config_label_colors, label_config_label_block_width,
	label_config_right_block_enabled, label_config_right_block_width, print_settings_ticket_gap,
	csv_headers, csv_data)
VALUES ($1, $2,
	$3::text::enum_ticket_templates_ticket_settings_type, $4, $5, $6::text::enum_ticket_templates_ticket_settings_fit_mode,
	$7::jsonb, $8, $9::jsonb, $10, $11, $12, $13, $14::jsonb, $15::jsonb)
RETURNING id`

const updateTemplateSQL = `UPDATE ticket_templates SET name = $1, background_image_id = $2,
	ticket_settings_type = $3::text::enum_ticket_templates_ticket_settings_type,
	ticket_settings_width = $4, ticket_settings_height = $5,
	ticket_settings_fit_mode = $6::text::enum_ticket_templates_ticket_settings_fit_mode,
	elements = $7::jsonb, label_config_label_column = $8, label_config_label_colors = $9::jsonb,
	label_config_label_block_width = $10, label_config_right_block_enabled = $11,
	label_config_right_block_width = $12, print_settings_ticket_gap = $13,
	csv_headers = $14::jsonb, csv_data = $15::jsonb, updated_at = now()
WHERE id = $16`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(r rowScanner) (TemplateDoc, error) {
	var (
		d                   TemplateDoc
		typ, fit            string
		elements            []byte
		labelCol            sql.NullString
		colors              []byte
		blockW, rightW, gap sql.NullFloat64
		rightOn             sql.NullBool
		headers, data       []byte
		mID, mSize          sql.NullInt64
		mAlt, mFile, mMime  sql.NullString
		mW, mH              sql.NullInt32
	)
	err := r.Scan(&d.ID, &d.Name,
		&typ, &d.TicketSettings.Width, &d.TicketSettings.Height, &fit,
		&elements,
		&labelCol, &colors, &blockW, &rightOn, &rightW,
		&gap,
		&headers, &data, &d.CreatedAt, &d.UpdatedAt,
		&mID, &mAlt, &mFile, &mMime, &mSize, &mW, &mH)
	if err != nil {
		return TemplateDoc{}, err
	}
	d.TicketSettings.Type = domain.TicketType(typ)
	d.TicketSettings.FitMode = domain.FitMode(fit)
	if err := json.Unmarshal(elements, &d.Elements); err != nil {
		return TemplateDoc{}, fmt.Errorf("template %d elements: %w", d.ID, err)
	}
	lc := domain.DefaultLabelConfig()
	lc.LabelColumn = labelCol.String
	if len(colors) > 0 {
		if err := json.Unmarshal(colors, &lc.LabelColors); err != nil {
			return TemplateDoc{}, fmt.Errorf("template %d label colors: %w", d.ID, err)
		}
	}
	if blockW.Valid {
		lc.LabelBlockWidth = blockW.Float64
	}
	lc.RightBlockEnabled = rightOn.Bool
	if rightW.Valid {
		lc.RightBlockWidth = rightW.Float64
	}
	d.LabelConfig = &lc
	ps := domain.DefaultPrintSettings()
	if gap.Valid {
		ps.TicketGap = gap.Float64
	}
	d.PrintSettings = &ps
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &d.CSVHeaders); err != nil {
			return TemplateDoc{}, fmt.Errorf("template %d csv headers: %w", d.ID, err)
		}
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d.CSVData); err != nil {
			return TemplateDoc{}, fmt.Errorf("template %d csv data: %w", d.ID, err)
		}
	}
	if mID.Valid {
		m := Media{
			ID:       mID.Int64,
			Alt:      mAlt.String,
			Filename: mFile.String,
			MimeType: mMime.String,
			Filesize: mSize.Int64,
			Width:    int(mW.Int32),
			Height:   int(mH.Int32),
			URL:      mediaFileURL(mID.Int64),
		}
		d.BackgroundImage = &MediaRef{ID: m.ID, Media: &m}
	}
	return d, nil
}

func templateArgs(d TemplateDoc) ([]any, error) {
	elements := d.Elements
	if elements == nil {
		elements = domain.Elements{}
	}
	elemJSON, err := json.Marshal(elements)
	if err != nil {
		return nil, fmt.Errorf("encode elements: %w", err)
	}
	lc := domain.DefaultLabelConfig()
	if d.LabelConfig != nil {
		lc = d.LabelConfig.Clone()
	}
	colors, err := json.Marshal(lc.LabelColors)
	if err != nil {
		return nil, err
	}
	gap := domain.DefaultTicketGap
	if d.PrintSettings != nil {
		gap = d.PrintSettings.TicketGap
	}
	var bg any
	if d.BackgroundImage != nil && d.BackgroundImage.ID > 0 {
		bg = d.BackgroundImage.ID
	}
	headers, err := nullableJSON(d.CSVHeaders, d.CSVHeaders == nil)
	if err != nil {
		return nil, err
	}
	data, err := nullableJSON(d.CSVData, d.CSVData == nil)
	if err != nil {
		return nil, err
	}
	return []any{
		d.Name, bg,
		string(d.TicketSettings.Type), d.TicketSettings.Width, d.TicketSettings.Height, string(d.TicketSettings.FitMode),
		string(elemJSON), lc.LabelColumn, string(colors), lc.LabelBlockWidth,
		lc.RightBlockEnabled, lc.RightBlockWidth, gap,
		headers, data,
	}, nil
}

func nullableJSON(v any, isNil bool) (any, error) {
	if isNil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *PGStore) ListTemplates(ctx context.Context, q ListQuery) ([]TemplateDoc, int, error) {
	col, ok := sortColumns[q.SortField]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", q.SortField)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM ticket_templates`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf("%s ORDER BY t.%s %s, t.id %s LIMIT $1 OFFSET $2", selectTemplateSQL, col, dir, dir)
	rows, err := s.db.QueryContext(ctx, query, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []TemplateDoc
	for rows.Next() {
		d, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (s *PGStore) GetTemplate(ctx context.Context, id int64) (TemplateDoc, error) {
	d, err := scanTemplate(s.db.QueryRowContext(ctx, selectTemplateSQL+` WHERE t.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateDoc{}, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return d, err
}

func (s *PGStore) CreateTemplate(ctx context.Context, doc TemplateDoc) (TemplateDoc, error) {
	args, err := templateArgs(doc)
	if err != nil {
		return TemplateDoc{}, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, insertTemplateSQL, args...).Scan(&id); err != nil {
		return TemplateDoc{}, fmt.Errorf("insert template: %w", err)
	}
	return s.GetTemplate(ctx, id)
}

func (s *PGStore) UpdateTemplate(ctx context.Context, id int64, doc TemplateDoc) (TemplateDoc, error) {
	args, err := templateArgs(doc)
	if err != nil {
		return TemplateDoc{}, err
	}
	res, err := s.db.ExecContext(ctx, updateTemplateSQL, append(args, id)...)
	if err != nil {
		return TemplateDoc{}, fmt.Errorf("update template %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return TemplateDoc{}, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return s.GetTemplate(ctx, id)
}

func (s *PGStore) DeleteTemplate(ctx context.Context, id int64) (TemplateDoc, error) {
	d, err := s.GetTemplate(ctx, id)
	if err != nil {
		return TemplateDoc{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ticket_templates WHERE id = $1`, id); err != nil {
		return TemplateDoc{}, fmt.Errorf("delete template %d: %w", id, err)
	}
	return d, nil
}

func (s *PGStore) CreateMedia(ctx context.Context, m Media, data []byte) (Media, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO media (alt, filename, mime_type, filesize, width, height, data) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		m.Alt, m.Filename, m.MimeType, int64(len(data)), m.Width, m.Height, data).Scan(&m.ID)
	if err != nil {
		return Media{}, fmt.Errorf("insert media: %w", err)
	}
	m.Filesize = int64(len(data))
	m.URL = mediaFileURL(m.ID)
	return m, nil
}

func (s *PGStore) MediaFile(ctx context.Context, id int64) (Media, []byte, error) {
	var (
		m    = Media{ID: id, URL: mediaFileURL(id)}
		w, h sql.NullInt32
		data []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT alt, filename, mime_type, filesize, width, height, data FROM media WHERE id = $1`, id).
		Scan(&m.Alt, &m.Filename, &m.MimeType, &m.Filesize, &w, &h, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Media{}, nil, fmt.Errorf("media %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Media{}, nil, err
	}
	m.Width, m.Height = int(w.Int32), int(h.Int32)
	return m, data, nil
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each applied version.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	logger := applog.WithComponent("backend")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		logger.Info("applying migration", "file", fname)
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	prefix, _, ok := strings.Cut(path.Base(name), "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
