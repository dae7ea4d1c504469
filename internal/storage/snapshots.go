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
	"fmt"
	"time"

	"ticketforge/internal/domain"
)

// MaxSnapshots is the number of autosave snapshots kept per template.
const MaxSnapshots = 10

// UnsavedID keys snapshots of documents that were never saved.
const UnsavedID = "unsaved"

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(template_id, ts, doc) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, doc FROM snapshots WHERE template_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE template_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE template_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// language=SQL
// dialect=SQLite
const deleteSnapshotsSQL = `DELETE FROM snapshots WHERE template_id = ?`

// Snapshot is an autosaved document.
type Snapshot struct {
	At       time.Time
	Template domain.TicketTemplate
}

func snapshotKey(id string) string {
	if id == "" {
		return UnsavedID
	}
	return id
}

// SaveSnapshot stores tpl as the newest autosave of its template and prunes
// all but the MaxSnapshots most recent ones.
func (lib *Library) SaveSnapshot(ctx context.Context, tpl domain.TicketTemplate, ts time.Time) error {
	doc, err := EncodeDocument(tpl)
	if err != nil {
		return err
	}
	key := snapshotKey(tpl.ID)
	if _, err := lib.db.ExecContext(ctx, insertSnapshotSQL, key, ts.UTC().Format(time.RFC3339Nano), doc); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := lib.db.ExecContext(ctx, pruneOldSnapshotsSQL, key, key, MaxSnapshots); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Snapshots returns up to limit autosaves of template id, newest first.
func (lib *Library) Snapshots(ctx context.Context, id string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = MaxSnapshots
	}
	rows, err := lib.db.QueryContext(ctx, listSnapshotsSQL, snapshotKey(id), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var ts string
		var doc []byte
		if err := rows.Scan(&ts, &doc); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		tpl, err := DecodeDocument(doc)
		if err != nil {
			continue
		}
		at, _ := time.Parse(time.RFC3339Nano, ts)
		out = append(out, Snapshot{At: at, Template: tpl})
	}
	return out, rows.Err()
}

// LatestSnapshot returns the newest autosave of template id.
func (lib *Library) LatestSnapshot(ctx context.Context, id string) (Snapshot, error) {
	snaps, err := lib.Snapshots(ctx, id, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no snapshot for %s", ErrNotFound, snapshotKey(id))
	}
	return snaps[0], nil
}
