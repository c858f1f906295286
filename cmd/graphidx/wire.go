// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"log/slog"

	"github.com/sigil-dev/graphidx/internal/config"
	"github.com/sigil-dev/graphidx/internal/secrets"
	"github.com/sigil-dev/graphidx/internal/store"
	_ "github.com/sigil-dev/graphidx/internal/store/sqlite" // register sqlite backend
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/spf13/viper"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// loadConfig validates the configuration assembled by initViper.
func loadConfig() (*config.Config, error) {
	config.WarnInsecurePermissions(viper.ConfigFileUsed())
	return config.FromViper(viper.GetViper())
}

// openStore resolves the store credentials and opens the configured backend.
func openStore(cfg *config.Config) (store.GraphStore, error) {
	creds, err := secrets.ResolveCredentials(secretStoreFactory(), cfg.Store.Credentials)
	if err != nil {
		return nil, err
	}

	gs, err := store.Open(cfg.StorageConfig(creds))
	if err != nil {
		return nil, graphidxerr.Wrap(err, graphidxerr.CodeStoreUnavailable, "opening graph store",
			graphidxerr.Field("backend", cfg.Store.Backend),
			graphidxerr.Field("address", cfg.Store.Address))
	}

	slog.Debug("graph store opened", "backend", cfg.Store.Backend, "address", cfg.Store.Address)
	return gs, nil
}
