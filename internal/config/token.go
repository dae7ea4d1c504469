/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService = "TicketForge"
	keyringToken   = "backend_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// OSKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type OSKeyring struct{}

func (OSKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }

func (OSKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }

func (OSKeyring) Delete(service, key string) error { return keyring.Delete(service, key) }

var (
	tokenMu    sync.RWMutex
	tokenStore TokenStore = OSKeyring{}
)

// SetTokenStore swaps the token store and returns the previous one.
func SetTokenStore(s TokenStore) TokenStore {
	tokenMu.Lock()
	defer tokenMu.Unlock()
	prev := tokenStore
	tokenStore = s
	return prev
}

func store() TokenStore {
	tokenMu.RLock()
	defer tokenMu.RUnlock()
	return tokenStore
}

// LoadToken returns the saved backend token. A missing entry is not an error.
func LoadToken() (string, error) {
	tok, err := store().Get(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

func SaveToken(token string) error { return store().Set(keyringService, keyringToken, token) }

// DeleteToken removes the saved token. A missing entry is not an error.
func DeleteToken() error {
	err := store().Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
