// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	_ "embed"
	"os"
	"path/filepath"

	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

//go:embed graphidx.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/graphidx/graphidx.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", graphidxerr.Errorf(graphidxerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "graphidx", "graphidx.yaml"), nil
}

// WriteDefault writes the default commented config to path. An existing
// file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return graphidxerr.New(graphidxerr.CodeCLIInputInvalid, "config file already exists; use --force to overwrite",
				graphidxerr.Field("path", path))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return graphidxerr.Errorf(graphidxerr.CodeConfigLoadReadFailure, "creating config directory: %w", err)
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		return graphidxerr.Errorf(graphidxerr.CodeConfigLoadReadFailure, "writing config %s: %w", path, err)
	}
	return nil
}
