// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package annotate

import (
	"fmt"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Batch pairs entity ids with vectors by position: IDs[i] receives
// Vectors[i].
type Batch struct {
	IDs     []store.EntityID
	Vectors [][]float32
}

// NewBatch pairs ids with vectors positionally. The counts must agree.
func NewBatch(ids []store.EntityID, vectors [][]float32) (Batch, error) {
	if len(ids) != len(vectors) {
		return Batch{}, sizeMismatch(len(ids), len(vectors))
	}
	return Batch{IDs: ids, Vectors: vectors}, nil
}

// Len returns the number of pairs in the batch.
func (b Batch) Len() int { return len(b.IDs) }

// Dimensions returns the common vector length, or 0 for an empty batch.
func (b Batch) Dimensions() int {
	if len(b.Vectors) == 0 {
		return 0
	}
	return len(b.Vectors[0])
}

// Validate checks the batch without touching the store. A count
// disagreement is a size mismatch; duplicate ids, empty vectors and
// vectors of differing lengths make the batch malformed.
func (b Batch) Validate() error {
	if len(b.IDs) != len(b.Vectors) {
		return sizeMismatch(len(b.IDs), len(b.Vectors))
	}

	seen := make(map[store.EntityID]int, len(b.IDs))
	for i, id := range b.IDs {
		if first, dup := seen[id]; dup {
			return graphidxerr.New(graphidxerr.CodeAnnotateBatchMalformed,
				fmt.Sprintf("entity %d appears at positions %d and %d", id, first, i),
				graphidxerr.FieldEntityID(int64(id)))
		}
		seen[id] = i
	}

	dims := b.Dimensions()
	for i, vec := range b.Vectors {
		if len(vec) == 0 {
			return graphidxerr.New(graphidxerr.CodeAnnotateBatchMalformed,
				fmt.Sprintf("vector at position %d is empty", i),
				graphidxerr.FieldEntityID(int64(b.IDs[i])))
		}
		if len(vec) != dims {
			return graphidxerr.New(graphidxerr.CodeAnnotateBatchMalformed,
				fmt.Sprintf("vector at position %d has %d components, want %d", i, len(vec), dims),
				graphidxerr.FieldEntityID(int64(b.IDs[i])),
				graphidxerr.Field("dimensions", dims))
		}
	}
	return nil
}

func sizeMismatch(ids, vectors int) error {
	return graphidxerr.New(graphidxerr.CodeAnnotateBatchSizeMismatch,
		fmt.Sprintf("batch has %d ids but %d vectors", ids, vectors),
		graphidxerr.Field("ids", ids),
		graphidxerr.Field("vectors", vectors))
}
