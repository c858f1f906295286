// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sigil-dev/graphidx/internal/store"
	"github.com/sigil-dev/graphidx/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "graphidx-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

// openStore opens a fresh graph store that is closed when the test ends.
func openStore(t *testing.T, name string) *sqlite.GraphStore {
	t.Helper()
	gs, err := sqlite.NewGraphStore(testDBPath(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })
	return gs
}

// seedProducts creates Product nodes with the given names and returns their
// ids in creation order.
func seedProducts(t *testing.T, gs *sqlite.GraphStore, names ...string) []store.EntityID {
	t.Helper()
	var ids []store.EntityID
	err := gs.ExecuteWrite(context.Background(), func(ctx context.Context, tx store.WriteTx) error {
		for _, name := range names {
			id, err := tx.CreateNode(ctx, "Product", map[string]any{"name": name})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

// getNode reads a node in its own read transaction.
func getNode(t *testing.T, gs *sqlite.GraphStore, id store.EntityID) *store.Node {
	t.Helper()
	var node *store.Node
	err := gs.ExecuteRead(context.Background(), func(ctx context.Context, tx store.ReadTx) error {
		var err error
		node, err = tx.GetNode(ctx, id)
		return err
	})
	require.NoError(t, err)
	return node
}
