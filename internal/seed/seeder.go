// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package seed loads a literal sample graph into the store.
package seed

import (
	"context"
	"log/slog"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Result counts what a seed run created.
type Result struct {
	Nodes         int
	Relationships int
}

// Seeder writes a Fixture into a graph store in one write transaction.
type Seeder struct {
	graph   store.GraphStore
	fixture *Fixture
	reset   bool
	logger  *slog.Logger
}

// NewSeeder creates a Seeder. With reset set, every existing node is
// detach-deleted before the fixture is written.
func NewSeeder(graph store.GraphStore, fixture *Fixture, reset bool, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{graph: graph, fixture: fixture, reset: reset, logger: logger}
}

// Seed applies the fixture. Nothing is written if any step fails.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	var res Result
	err := s.graph.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		res = Result{}
		if s.reset {
			if err := tx.Reset(ctx); err != nil {
				return err
			}
		}

		ids := make(map[string]store.EntityID, len(s.fixture.Nodes))
		for _, n := range s.fixture.Nodes {
			id, err := tx.CreateNode(ctx, n.Label, n.Properties)
			if err != nil {
				return graphidxerr.With(err, graphidxerr.Field("node", n.Key))
			}
			ids[n.Key] = id
			res.Nodes++
		}

		for _, r := range s.fixture.Relationships {
			if _, err := tx.CreateRelationship(ctx, ids[r.From], r.Type, ids[r.To]); err != nil {
				return err
			}
			res.Relationships++
		}
		return nil
	})
	if err != nil {
		return Result{}, graphidxerr.Wrap(err, graphidxerr.CodeSeedLoadFailure, "seeding graph")
	}

	s.logger.InfoContext(ctx, "graph seeded",
		"reset", s.reset,
		"nodes", res.Nodes,
		"relationships", res.Relationships,
	)
	return res, nil
}
