// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package seed_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sigil-dev/graphidx/internal/seed"
	"github.com/sigil-dev/graphidx/internal/store"
	"github.com/sigil-dev/graphidx/internal/store/sqlite"
	"github.com/sigil-dev/graphidx/internal/store/storetest"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLabel(t *testing.T, gs store.GraphStore, label string) int {
	t.Helper()
	var n int
	err := gs.ExecuteRead(context.Background(), func(ctx context.Context, tx store.ReadTx) error {
		var err error
		n, err = tx.CountNodes(ctx, label)
		return err
	})
	require.NoError(t, err)
	return n
}

func TestSeeder_SQLiteDefaultFixture(t *testing.T) {
	gs, err := sqlite.NewGraphStore(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })

	f, err := seed.Default()
	require.NoError(t, err)

	res, err := seed.NewSeeder(gs, f, true, nil).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed.Result{Nodes: 6, Relationships: 6}, res)
	assert.Equal(t, 3, countLabel(t, gs, "Person"))
	assert.Equal(t, 3, countLabel(t, gs, "Product"))

	// Seeding again with reset replaces the graph rather than duplicating it.
	_, err = seed.NewSeeder(gs, f, true, nil).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, countLabel(t, gs, "Product"))

	// Without reset the nodes accumulate.
	_, err = seed.NewSeeder(gs, f, false, nil).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, countLabel(t, gs, "Product"))
}

func TestSeeder_PropertiesRoundTrip(t *testing.T) {
	mem := storetest.New()
	f, err := seed.Default()
	require.NoError(t, err)

	_, err = seed.NewSeeder(mem, f, false, nil).Seed(context.Background())
	require.NoError(t, err)

	var ids []store.EntityID
	err = mem.ExecuteRead(context.Background(), func(ctx context.Context, tx store.ReadTx) error {
		ids, err = tx.NodeIDs(ctx, "Product")
		return err
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	laptop := mem.Node(ids[0])
	assert.Equal(t, "Laptop", laptop.Properties["name"])
	assert.Equal(t, 1200, laptop.Properties["price"])
}

func TestSeeder_WriteFailure(t *testing.T) {
	mem := storetest.New()
	mem.FailWrite = graphidxerr.New(graphidxerr.CodeStoreUnavailable, "connection refused")
	f, err := seed.Default()
	require.NoError(t, err)

	_, err = seed.NewSeeder(mem, f, true, nil).Seed(context.Background())
	require.Error(t, err)
	assert.True(t, graphidxerr.IsUnavailable(err))
}
