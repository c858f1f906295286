// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sigil-dev/graphidx/internal/config"
	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

// storeProbe is implemented by backends that can report their own health.
type storeProbe interface {
	Ping(ctx context.Context) error
	VecVersion(ctx context.Context) (string, error)
	CheckFTS5(ctx context.Context) error
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the binary, the loaded config, store connectivity, the sqlite-vec and FTS5 modules, existing indexes and free disk space.",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	cfg, cfgErr := loadConfig()

	var gs store.GraphStore
	var storeErr error
	if cfgErr == nil {
		gs, storeErr = openStore(cfg)
		if storeErr == nil {
			defer func() { _ = gs.Close() }()
		}
	}

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", func() string { return checkConfig(cfgErr) }},
		{"Store", func() string { return checkStore(ctx, cfg, gs, cfgErr, storeErr) }},
		{"sqlite-vec", func() string { return checkVec(ctx, gs) }},
		{"FTS5", func() string { return checkFTS5(ctx, gs) }},
		{"Indexes", func() string { return checkIndexes(ctx, gs) }},
		{"Disk Space", func() string { return checkDiskSpace(cfg) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("graphidx %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(cfgErr error) string {
	if cfgErr != nil {
		return errorStyle.Render("invalid: " + cfgErr.Error())
	}
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkStore(ctx context.Context, cfg *config.Config, gs store.GraphStore, cfgErr, storeErr error) string {
	switch {
	case cfgErr != nil:
		return dimStyle.Render("skipped (config invalid)")
	case storeErr != nil:
		return errorStyle.Render("unavailable: " + storeErr.Error())
	}
	if probe, ok := gs.(storeProbe); ok {
		if err := probe.Ping(ctx); err != nil {
			return errorStyle.Render("unavailable: " + err.Error())
		}
	}
	return fmt.Sprintf("%s at %s", cfg.Store.Backend, cfg.Store.Address)
}

func checkVec(ctx context.Context, gs store.GraphStore) string {
	if gs == nil {
		return dimStyle.Render("skipped (store unavailable)")
	}
	probe, ok := gs.(storeProbe)
	if !ok {
		return dimStyle.Render("not applicable")
	}
	v, err := probe.VecVersion(ctx)
	if err != nil {
		return errorStyle.Render("not loaded: " + err.Error())
	}
	return v
}

func checkFTS5(ctx context.Context, gs store.GraphStore) string {
	if gs == nil {
		return dimStyle.Render("skipped (store unavailable)")
	}
	probe, ok := gs.(storeProbe)
	if !ok {
		return dimStyle.Render("not applicable")
	}
	if err := probe.CheckFTS5(ctx); err != nil {
		if graphidxerr.HasCode(err, graphidxerr.CodeStoreModuleMissing) {
			return errorStyle.Render("missing: fulltext indexes will fail; rebuild with 'make build' (-tags sqlite_fts5)")
		}
		return errorStyle.Render("error: " + err.Error())
	}
	return "available"
}

func checkIndexes(ctx context.Context, gs store.GraphStore) string {
	if gs == nil {
		return dimStyle.Render("skipped (store unavailable)")
	}
	infos, err := gs.Indexes().List(ctx)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}
	if len(infos) == 0 {
		return "none (run 'graphidx bootstrap')"
	}
	var vec, fts int
	for _, info := range infos {
		switch info.Kind {
		case store.IndexKindVector:
			vec++
		case store.IndexKindFulltext:
			fts++
		}
	}
	return fmt.Sprintf("%d vector, %d fulltext", vec, fts)
}

func checkDiskSpace(cfg *config.Config) string {
	path := ""
	if cfg != nil && cfg.Store.Backend == "sqlite" {
		path = filepath.Dir(cfg.Store.Address)
	}
	if _, err := os.Stat(path); path == "" || os.IsNotExist(err) {
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
