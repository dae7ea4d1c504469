/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dataset

import "sync"

// Store holds the dataset currently bound to the editor.
type Store struct {
	mu sync.RWMutex
	ds *Dataset
}

// Load parses text and replaces the current dataset. On error the previous
// dataset is kept.
func (s *Store) Load(text string) error {
	d, err := Parse(text)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ds = d
	s.mu.Unlock()
	return nil
}

// Set replaces the dataset directly, e.g. when a template carries its own data.
func (s *Store) Set(d *Dataset) {
	s.mu.Lock()
	s.ds = d
	s.mu.Unlock()
}

func (s *Store) Clear() { s.Set(nil) }

// Current returns the bound dataset or nil. Callers must not mutate it.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

func (s *Store) Headers() []string {
	if d := s.Current(); d != nil {
		return d.Headers
	}
	return nil
}

func (s *Store) RowCount() int { return s.Current().Len() }
