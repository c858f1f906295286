// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"log/slog"

	"github.com/sigil-dev/graphidx/internal/bootstrap"
	"github.com/sigil-dev/graphidx/internal/seed"
	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the graph, attach vectors and rebuild both indexes",
		Long: "Run the full sequence once: seed the sample graph, resolve the target entities, " +
			"attach the fixture vectors in id order, then replace the vector and fulltext indexes. " +
			"The run stops at the first failing step and is never retried.",
		RunE: runBootstrap,
	}

	cmd.Flags().Bool("no-seed", false, "skip seeding and annotate the entities already in the store")
	cmd.Flags().String("fixture", "", "seed fixture file (overrides seed.fixture)")

	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("fixture"); path != "" {
		cfg.Seed.Fixture = path
	}
	if noSeed, _ := cmd.Flags().GetBool("no-seed"); noSeed {
		cfg.Seed.Enabled = false
	}

	// The fixture supplies the vectors even when seeding is disabled.
	fixture, err := seed.LoadFixture(cfg.Seed.Fixture)
	if err != nil {
		return err
	}

	gs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gs.Close() }()

	oc := bootstrap.OrchestratorConfig{
		Graph: gs,
		Plan: bootstrap.Plan{
			TargetLabel:       cfg.Graph.TargetLabel,
			EmbeddingProperty: cfg.Graph.EmbeddingProperty,
			Vectors:           fixture.Vectors,
			VectorIndex:       cfg.VectorIndexDefinition(),
			FulltextIndex:     cfg.FulltextIndexDefinition(),
		},
	}
	if cfg.Seed.Enabled {
		oc.Seeder = seed.NewSeeder(gs, fixture, cfg.Seed.Reset, nil)
	}

	report := bootstrap.NewOrchestrator(oc).Run(cmd.Context())
	if report.OK() {
		slog.InfoContext(cmd.Context(), "bootstrap finished", "report", report)
	} else {
		slog.ErrorContext(cmd.Context(), "bootstrap failed", "report", report)
	}
	if err := renderReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	return report.Err
}
