/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend talks to the remote ticket template store and implements
// a reference server for it on Postgres.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ticketforge/internal/domain"
	"ticketforge/internal/render"
)

// DefaultListLimit is the page size used when ListParams.Limit is unset.
const DefaultListLimit = 100

const (
	templatesPath = "/api/ticket-templates"
	mediaPath     = "/api/media"
	snippetLen    = 512
)

// RemoteError is returned for non-2xx responses.
type RemoteError struct {
	Method     string
	Path       string
	Status     int
	StatusText string
	Body       string // leading part of the response body
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("API error: %d %s (%s %s)", e.Status, e.StatusText, e.Method, e.Path)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// NotFound reports whether the server answered 404.
func (e *RemoteError) NotFound() bool { return e.Status == http.StatusNotFound }

// Client is an HTTP client for the ticket template store.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Configure sets the request timeout and whether TLS certificates are
// verified.
func (c *Client) Configure(timeout time.Duration, tlsInsecure bool) {
	hc := &http.Client{Timeout: timeout}
	if tlsInsecure {
		hc.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}
	c.client = hc
}

// ListParams select a page of templates. Sort is a field name with an
// optional leading "-" for descending order.
type ListParams struct {
	Limit int
	Page  int
	Sort  string
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	return q
}

type docEnvelope[T any] struct {
	Doc     T      `json:"doc"`
	Message string `json:"message,omitempty"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLen))
		return &RemoteError{
			Method:     req.Method,
			Path:       req.URL.Path,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

// ListTemplates returns one page of stored templates.
func (c *Client) ListTemplates(ctx context.Context, p ListParams) (Page[TemplateDoc], error) {
	var page Page[TemplateDoc]
	path := templatesPath + "?" + p.query().Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return Page[TemplateDoc]{}, err
	}
	return page, nil
}

// GetTemplate fetches a single template by id.
func (c *Client) GetTemplate(ctx context.Context, id int64) (TemplateDoc, error) {
	var doc TemplateDoc
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%d", templatesPath, id), nil, &doc); err != nil {
		return TemplateDoc{}, err
	}
	return doc, nil
}

// CreateTemplate stores a new template and returns it with its id.
func (c *Client) CreateTemplate(ctx context.Context, doc TemplateDoc) (TemplateDoc, error) {
	doc.ID = 0
	var env docEnvelope[TemplateDoc]
	if err := c.doJSON(ctx, http.MethodPost, templatesPath, doc, &env); err != nil {
		return TemplateDoc{}, err
	}
	return env.Doc, nil
}

// UpdateTemplate replaces the fields of template id with those of doc.
func (c *Client) UpdateTemplate(ctx context.Context, id int64, doc TemplateDoc) (TemplateDoc, error) {
	doc.ID = 0
	var env docEnvelope[TemplateDoc]
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("%s/%d", templatesPath, id), doc, &env); err != nil {
		return TemplateDoc{}, err
	}
	return env.Doc, nil
}

// DeleteTemplate removes template id.
func (c *Client) DeleteTemplate(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", templatesPath, id), nil, nil)
}

// UploadMedia sends a file as multipart form data and returns the stored
// media document.
func (c *Client) UploadMedia(ctx context.Context, filename, alt string, r io.Reader) (Media, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", mimeType(filename))
	part, err := mw.CreatePart(h)
	if err != nil {
		return Media{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return Media{}, fmt.Errorf("read upload: %w", err)
	}
	meta, err := json.Marshal(map[string]string{"alt": alt})
	if err != nil {
		return Media{}, err
	}
	if err := mw.WriteField("_payload", string(meta)); err != nil {
		return Media{}, err
	}
	if err := mw.Close(); err != nil {
		return Media{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, mediaPath, &buf)
	if err != nil {
		return Media{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var env docEnvelope[Media]
	if err := c.do(req, &env); err != nil {
		return Media{}, err
	}
	return env.Doc, nil
}

// PushTemplate creates or updates t in the store. A template pulled from the
// store (see ToTemplate) is updated in place; anything else is created. A
// background that is not already stored is uploaded through images first.
func (c *Client) PushTemplate(ctx context.Context, t domain.TicketTemplate, images render.FileSource) (TemplateDoc, error) {
	doc := FromTemplate(t)
	if t.BackgroundImage != nil && *t.BackgroundImage != "" {
		ref, err := c.backgroundRef(ctx, t.Name, *t.BackgroundImage, images)
		if err != nil {
			return TemplateDoc{}, err
		}
		doc.BackgroundImage = ref
	}
	if id, ok := RemoteID(t.ID); ok {
		return c.UpdateTemplate(ctx, id, doc)
	}
	return c.CreateTemplate(ctx, doc)
}

func (c *Client) backgroundRef(ctx context.Context, name, ref string, images render.FileSource) (*MediaRef, error) {
	if id, ok := c.mediaID(ref); ok {
		return &MediaRef{ID: id}, nil
	}
	raw, err := images.Read(ref)
	if err != nil {
		return nil, err
	}
	filename := "background.png"
	if !strings.HasPrefix(ref, "data:") {
		filename = filepath.Base(ref)
	} else if strings.HasPrefix(ref, "data:image/jpeg") {
		filename = "background.jpg"
	}
	m, err := c.UploadMedia(ctx, filename, "Template background: "+name, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("upload background: %w", err)
	}
	return &MediaRef{ID: m.ID}, nil
}

// mediaID recognizes URLs of media files served by this store.
func (c *Client) mediaID(ref string) (int64, bool) {
	rest, ok := strings.CutPrefix(ref, c.BaseURL+mediaPath+"/")
	if !ok {
		rest, ok = strings.CutPrefix(ref, mediaPath+"/")
	}
	if !ok {
		return 0, false
	}
	idStr, tail, _ := strings.Cut(rest, "/")
	if tail != "file" {
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	return id, err == nil && id > 0
}

// ImageSource loads backgrounds over HTTP and hands every other reference to
// Fallback. It satisfies render.ImageSource.
type ImageSource struct {
	Client   *Client
	Fallback render.ImageSource
	Context  context.Context
}

func (s ImageSource) Open(ref string) (image.Image, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if s.Fallback == nil {
			return nil, render.ErrNoImageSource
		}
		return s.Fallback.Open(ref)
	}
	if s.Client == nil {
		return nil, render.ErrNoImageSource
	}
	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	if s.Client.Token != "" && strings.HasPrefix(ref, s.Client.BaseURL+"/") {
		req.Header.Set("Authorization", "Bearer "+s.Client.Token)
	}
	resp, err := s.Client.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch background: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Method: req.Method, Path: req.URL.Path, Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	return img, nil
}

// IsNotFound reports whether err is a 404 from the store.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.NotFound()
}

func mimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
