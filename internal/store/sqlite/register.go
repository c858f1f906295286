// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"log/slog"

	"github.com/sigil-dev/graphidx/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", newGraphStore)
}

func newGraphStore(cfg *store.StorageConfig) (store.GraphStore, error) {
	if cfg.Credentials != "" {
		// SQLite has no authentication layer; access is governed by file
		// permissions on the database path.
		slog.Debug("sqlite backend ignores store credentials", "address", cfg.Address)
	}

	gs, err := NewGraphStore(cfg.Address)
	if err != nil {
		return nil, err
	}
	return gs, nil
}
