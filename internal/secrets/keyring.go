// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/zalando/go-keyring"
)

// keysIndexSuffix names the entry holding a JSON list of the keys stored
// under a service; go-keyring cannot enumerate keys itself.
const keysIndexSuffix = "::keys-index"

// KeyringStore implements Store on the OS keyring (Keychain, secret-service
// or Credential Manager) via zalando/go-keyring.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func checkRef(op, service, key string) error {
	if service == "" {
		return graphidxerr.New(graphidxerr.CodeSecretInvalidInput, "secret "+op+": service must not be empty")
	}
	if key == "" {
		return graphidxerr.New(graphidxerr.CodeSecretInvalidInput, "secret "+op+": key must not be empty")
	}
	return nil
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkRef("store", service, key); err != nil {
		return err
	}

	if err := keyring.Set(service, key, value); err != nil {
		return graphidxerr.Wrapf(err, graphidxerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	keys, err := s.loadIndex(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return s.saveIndex(service, append(keys, key))
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkRef("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", graphidxerr.Errorf(graphidxerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", graphidxerr.Wrapf(err, graphidxerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkRef("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return graphidxerr.Errorf(graphidxerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return graphidxerr.Wrapf(err, graphidxerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	keys, err := s.loadIndex(service)
	if err != nil {
		return err
	}
	return s.saveIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (s *KeyringStore) List(service string) ([]string, error) {
	return s.loadIndex(service)
}

func (s *KeyringStore) loadIndex(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+keysIndexSuffix)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, graphidxerr.Wrapf(err, graphidxerr.CodeSecretListFailure, "loading key index for service %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, graphidxerr.Wrapf(err, graphidxerr.CodeSecretListFailure, "decoding key index for service %s", service)
	}
	return keys, nil
}

// saveIndex writes the key index, removing the entry once it is empty.
func (s *KeyringStore) saveIndex(service string, keys []string) error {
	indexKey := service + keysIndexSuffix

	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil {
			slog.Debug("failed to clean up empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return graphidxerr.Wrapf(err, graphidxerr.CodeSecretListFailure, "encoding key index for service %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return graphidxerr.Wrapf(err, graphidxerr.CodeSecretListFailure, "saving key index for service %s", service)
	}
	return nil
}
