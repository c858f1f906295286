// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

// StorageConfig controls which backend the store factory uses and how it
// connects.
type StorageConfig struct {
	Backend     string // "sqlite" is the only supported backend for now.
	Address     string // Backend-specific address; a database path for sqlite.
	Credentials string // Resolved secret; backends without auth ignore it.
}
