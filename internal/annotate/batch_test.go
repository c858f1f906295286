// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package annotate_test

import (
	"testing"

	"github.com/sigil-dev/graphidx/internal/annotate"
	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	b, err := annotate.NewBatch([]store.EntityID{10, 11}, [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 2, b.Dimensions())

	_, err = annotate.NewBatch([]store.EntityID{10, 11, 12}, [][]float32{{1, 2}, {3, 4}})
	require.Error(t, err)
	assert.True(t, graphidxerr.HasCode(err, graphidxerr.CodeAnnotateBatchSizeMismatch))
	assert.Equal(t, 3, graphidxerr.FieldsOf(err)["ids"])
	assert.Equal(t, 2, graphidxerr.FieldsOf(err)["vectors"])
}

func TestBatch_Validate(t *testing.T) {
	tests := []struct {
		name  string
		batch annotate.Batch
		code  graphidxerr.Code
	}{
		{
			name:  "empty",
			batch: annotate.Batch{},
		},
		{
			name:  "valid",
			batch: annotate.Batch{IDs: []store.EntityID{1, 2}, Vectors: [][]float32{{1, 2, 3}, {4, 5, 6}}},
		},
		{
			name:  "size mismatch",
			batch: annotate.Batch{IDs: []store.EntityID{1}, Vectors: [][]float32{{1}, {2}}},
			code:  graphidxerr.CodeAnnotateBatchSizeMismatch,
		},
		{
			name:  "duplicate id",
			batch: annotate.Batch{IDs: []store.EntityID{10, 10}, Vectors: [][]float32{{1}, {2}}},
			code:  graphidxerr.CodeAnnotateBatchMalformed,
		},
		{
			name:  "empty vector",
			batch: annotate.Batch{IDs: []store.EntityID{1}, Vectors: [][]float32{{}}},
			code:  graphidxerr.CodeAnnotateBatchMalformed,
		},
		{
			name:  "ragged vectors",
			batch: annotate.Batch{IDs: []store.EntityID{1, 2}, Vectors: [][]float32{{1, 2, 3}, {4, 5}}},
			code:  graphidxerr.CodeAnnotateBatchMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, graphidxerr.CodeOf(err))
			assert.True(t, graphidxerr.IsInvalidInput(err))
		})
	}
}
