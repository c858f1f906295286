// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package entity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Resolver maps a label to the identifiers of the entities carrying it.
type Resolver struct {
	graph  store.GraphStore
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given store. A nil logger
// falls back to slog.Default().
func NewResolver(graph store.GraphStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{graph: graph, logger: logger}
}

// Resolve returns the ids of every entity labelled label, read from one
// snapshot. No match yields an empty slice, not an error.
func (r *Resolver) Resolve(ctx context.Context, label string) ([]store.EntityID, error) {
	if strings.TrimSpace(label) == "" {
		return nil, graphidxerr.New(graphidxerr.CodeResolveInvalidInput, "label must not be empty")
	}

	var ids []store.EntityID
	err := r.graph.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
		var err error
		ids, err = tx.NodeIDs(ctx, label)
		return err
	})
	if err != nil {
		return nil, graphidxerr.Wrap(err, graphidxerr.CodeStoreDatabaseFailure, "resolving entities",
			graphidxerr.FieldLabel(label))
	}
	if ids == nil {
		ids = []store.EntityID{}
	}

	r.logger.DebugContext(ctx, "entities resolved", "label", label, "count", len(ids))
	return ids, nil
}
