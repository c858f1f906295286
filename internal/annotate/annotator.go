// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package annotate writes vector annotations onto existing entities.
package annotate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Annotator attaches a batch of vectors to entities in one write
// transaction.
type Annotator struct {
	graph  store.GraphStore
	logger *slog.Logger
}

// NewAnnotator creates an Annotator. A nil logger falls back to
// slog.Default().
func NewAnnotator(graph store.GraphStore, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{graph: graph, logger: logger}
}

// Attach writes every vector of batch onto property of its entity and
// returns the number written. Either all pairs are written or none are.
// An empty batch returns 0 without opening a transaction.
func (a *Annotator) Attach(ctx context.Context, batch Batch, property string) (int, error) {
	if strings.TrimSpace(property) == "" {
		return 0, graphidxerr.New(graphidxerr.CodeAnnotateInvalidInput, "embedding property must not be empty")
	}
	if err := batch.Validate(); err != nil {
		return 0, err
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	err := a.graph.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		for i, id := range batch.IDs {
			if err := tx.SetVector(ctx, id, property, batch.Vectors[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, graphidxerr.Wrap(err, graphidxerr.CodeStoreDatabaseFailure, "attaching vectors",
			graphidxerr.Field("property", property),
			graphidxerr.Field("batch_size", batch.Len()))
	}

	a.logger.InfoContext(ctx, "vectors attached",
		"property", property,
		"count", batch.Len(),
		"dimensions", batch.Dimensions(),
	)
	return batch.Len(), nil
}
