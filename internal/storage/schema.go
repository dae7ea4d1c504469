/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"ticketforge/internal/domain"
)

//go:embed schema/ticket_template.schema.json
var templateSchema []byte

// TemplateSchema returns the JSON schema of a template document.
func TemplateSchema() []byte { return append([]byte(nil), templateSchema...) }

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(templateSchema))
})

// ErrInvalidDocument is matched by every *ValidationError.
var ErrInvalidDocument = errors.New("invalid template document")

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidDocument }

// ValidateDocument checks data against the template schema.
func ValidateDocument(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if res.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range res.Errors() {
		ve.Problems = append(ve.Problems, e.String())
	}
	return ve
}

// DecodeDocument validates and decodes a template document. Missing optional
// groups are filled with defaults.
func DecodeDocument(data []byte) (domain.TicketTemplate, error) {
	var tpl domain.TicketTemplate
	if err := ValidateDocument(data); err != nil {
		return tpl, err
	}
	if err := json.Unmarshal(data, &tpl); err != nil {
		return tpl, fmt.Errorf("decode template: %w", err)
	}
	if tpl.LabelConfig == nil {
		lc := domain.DefaultLabelConfig()
		if tpl.LabelBlock != nil && tpl.LabelBlock.Width > 0 {
			lc.SetLabelBlockWidth(tpl.LabelBlock.Width)
		}
		tpl.LabelConfig = &lc
	}
	if tpl.PrintSettings == nil {
		ps := domain.DefaultPrintSettings()
		tpl.PrintSettings = &ps
	}
	if tpl.Elements == nil {
		tpl.Elements = domain.Elements{}
	}
	return tpl, nil
}

// EncodeDocument renders tpl as indented JSON and checks the result against
// the schema.
func EncodeDocument(tpl domain.TicketTemplate) ([]byte, error) {
	if tpl.Elements == nil {
		tpl.Elements = domain.Elements{}
	}
	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
