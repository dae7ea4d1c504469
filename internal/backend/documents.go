/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ticketforge/internal/domain"
)

// TemplateDoc is a ticket template as stored in the remote document store.
type TemplateDoc struct {
	ID              int64                 `json:"id,omitempty"`
	Name            string                `json:"name"`
	BackgroundImage *MediaRef             `json:"backgroundImage,omitempty"`
	TicketSettings  domain.TicketSettings `json:"ticketSettings"`
	Elements        domain.Elements       `json:"elements"`
	LabelConfig     *domain.LabelConfig   `json:"labelConfig,omitempty"`
	PrintSettings   *domain.PrintSettings `json:"printSettings,omitempty"`
	CSVHeaders      []string              `json:"csvHeaders,omitempty"`
	CSVData         []map[string]string   `json:"csvData,omitempty"`
	CreatedAt       time.Time             `json:"createdAt,omitzero"`
	UpdatedAt       time.Time             `json:"updatedAt,omitzero"`
}

// Media describes an uploaded file.
type Media struct {
	ID           int64  `json:"id"`
	Alt          string `json:"alt,omitempty"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnailURL,omitempty"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Filesize     int64  `json:"filesize"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// MediaRef points at a media document. On the wire it is either the bare
// numeric id or the populated document.
type MediaRef struct {
	ID    int64
	Media *Media
}

func (m MediaRef) MarshalJSON() ([]byte, error) {
	if m.Media != nil {
		return json.Marshal(m.Media)
	}
	return json.Marshal(m.ID)
}

func (m *MediaRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = MediaRef{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var md Media
		if err := json.Unmarshal(data, &md); err != nil {
			return err
		}
		*m = MediaRef{ID: md.ID, Media: &md}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("media id %q: %w", s, err)
		}
		*m = MediaRef{ID: id}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("media ref: %w", err)
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("media ref: %v is not an id", f)
	}
	*m = MediaRef{ID: int64(f)}
	return nil
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Docs          []T  `json:"docs"`
	TotalDocs     int  `json:"totalDocs"`
	Limit         int  `json:"limit"`
	TotalPages    int  `json:"totalPages"`
	Page          int  `json:"page"`
	PagingCounter int  `json:"pagingCounter"`
	HasPrevPage   bool `json:"hasPrevPage"`
	HasNextPage   bool `json:"hasNextPage"`
	PrevPage      *int `json:"prevPage"`
	NextPage      *int `json:"nextPage"`
}

// NewPage fills the paging fields for docs taken from total results.
func NewPage[T any](docs []T, total, limit, page int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	p := Page[T]{Docs: docs, TotalDocs: total, Limit: limit, Page: page}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	if p.TotalPages == 0 {
		p.TotalPages = 1
	}
	p.PagingCounter = (page-1)*limit + 1
	p.HasPrevPage = page > 1
	p.HasNextPage = page < p.TotalPages
	if p.HasPrevPage {
		p.PrevPage = domain.Ptr(page - 1)
	}
	if p.HasNextPage {
		p.NextPage = domain.Ptr(page + 1)
	}
	return p
}

// RemoteIDPrefix marks templates pulled from the document store.
const RemoteIDPrefix = "remote-"

// ToTemplate converts a stored document into an editable template. A
// populated background becomes its absolute URL under baseURL.
func (d TemplateDoc) ToTemplate(baseURL string) domain.TicketTemplate {
	t := domain.TicketTemplate{
		Name:           d.Name,
		TicketSettings: d.TicketSettings,
		Elements:       d.Elements,
		LabelConfig:    d.LabelConfig,
		PrintSettings:  d.PrintSettings,
		CSVHeaders:     d.CSVHeaders,
		CSVData:        d.CSVData,
	}
	if d.ID != 0 {
		t.ID = RemoteIDPrefix + strconv.FormatInt(d.ID, 10)
	}
	if t.Elements == nil {
		t.Elements = domain.Elements{}
	}
	if d.BackgroundImage != nil && d.BackgroundImage.Media != nil && d.BackgroundImage.Media.URL != "" {
		t.BackgroundImage = domain.Ptr(absoluteURL(baseURL, d.BackgroundImage.Media.URL))
	}
	return t.Clone()
}

// FromTemplate builds the document body for t. The background is left for
// the caller to resolve into a media reference.
func FromTemplate(t domain.TicketTemplate) TemplateDoc {
	t = t.Clone()
	labels := t.Labels()
	return TemplateDoc{
		Name:           t.Name,
		TicketSettings: t.TicketSettings,
		Elements:       t.Elements,
		LabelConfig:    &labels,
		PrintSettings:  &domain.PrintSettings{TicketGap: t.Gap()},
		CSVHeaders:     t.CSVHeaders,
		CSVData:        t.CSVData,
	}
}

// RemoteID extracts the document id from a template id set by ToTemplate.
func RemoteID(templateID string) (int64, bool) {
	s, ok := strings.CutPrefix(templateID, RemoteIDPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func absoluteURL(base, u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || base == "" {
		return u
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(u, "/")
}

// mediaFileURL is the path the server serves media bytes under.
func mediaFileURL(id int64) string { return fmt.Sprintf("/api/media/%d/file", id) }
