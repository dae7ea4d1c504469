/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"strings"

	"ticketforge/internal/domain"
	"ticketforge/internal/editor"
	"ticketforge/internal/geom"
)

// DropColumn adds a text element bound to a CSV column at the screen point
// where the column header was dropped. An empty column name is ignored.
func DropColumn(ed *editor.Editor, view View, column string, at geom.Pt) *domain.TextElement {
	column = strings.TrimSpace(column)
	if column == "" {
		return nil
	}
	p := view.ToCanvas(at)
	ed.PushHistory()
	return ed.AddText(domain.Patch{
		X:          domain.Ptr(max(0, p.X)),
		Y:          domain.Ptr(max(0, p.Y)),
		TextFormat: domain.Ptr("{" + column + "}"),
	})
}
