// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sigil-dev/graphidx/internal/store"
	"github.com/sigil-dev/graphidx/internal/store/sqlite"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphStore_CreateAndGetNode(t *testing.T) {
	gs := openStore(t, "graph")
	ctx := context.Background()

	var id store.EntityID
	err := gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		var err error
		id, err = tx.CreateNode(ctx, "Product", map[string]any{"name": "Laptop", "price": 1200})
		return err
	})
	require.NoError(t, err)

	node := getNode(t, gs, id)
	assert.Equal(t, "Product", node.Label)
	assert.Equal(t, "Laptop", node.Properties["name"])
	assert.Equal(t, float64(1200), node.Properties["price"])
	assert.Nil(t, node.Vectors)
	assert.False(t, node.CreatedAt.IsZero())
}

func TestGraphStore_NodeIDsInCreationOrder(t *testing.T) {
	gs := openStore(t, "graph-ids")
	ctx := context.Background()

	ids := seedProducts(t, gs, "Laptop", "Phone", "Tablet")
	err := gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		_, err := tx.CreateNode(ctx, "Person", map[string]any{"name": "Alice"})
		return err
	})
	require.NoError(t, err)

	var got []store.EntityID
	var count int
	err = gs.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
		var err error
		if got, err = tx.NodeIDs(ctx, "Product"); err != nil {
			return err
		}
		count, err = tx.CountNodes(ctx, "Product")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, ids, got)
	assert.Equal(t, 3, count)
}

func TestGraphStore_NodeIDsNoMatchIsEmpty(t *testing.T) {
	gs := openStore(t, "graph-empty")

	var got []store.EntityID
	err := gs.ExecuteRead(context.Background(), func(ctx context.Context, tx store.ReadTx) error {
		var err error
		got, err = tx.NodeIDs(ctx, "Product")
		return err
	})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGraphStore_GetNodeNotFound(t *testing.T) {
	gs := openStore(t, "graph-missing")

	err := gs.ExecuteRead(context.Background(), func(ctx context.Context, tx store.ReadTx) error {
		_, err := tx.GetNode(ctx, store.EntityID(999))
		return err
	})
	require.Error(t, err)
	assert.True(t, graphidxerr.HasCode(err, graphidxerr.CodeStoreEntityNotFound))
	assert.Equal(t, int64(999), graphidxerr.FieldsOf(err)["entity_id"])
}

func TestGraphStore_SetVectorUpsert(t *testing.T) {
	gs := openStore(t, "graph-vectors")
	ctx := context.Background()
	ids := seedProducts(t, gs, "Laptop")

	write := func(vec []float32) {
		err := gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
			return tx.SetVector(ctx, ids[0], "embedding", vec)
		})
		require.NoError(t, err)
	}

	write([]float32{0.12, 0.34, 0.56})
	assert.Equal(t, []float32{0.12, 0.34, 0.56}, getNode(t, gs, ids[0]).Vectors["embedding"])

	write([]float32{0.78, 0.9, 0.12})
	node := getNode(t, gs, ids[0])
	assert.Len(t, node.Vectors, 1)
	assert.Equal(t, []float32{0.78, 0.9, 0.12}, node.Vectors["embedding"])
}

func TestGraphStore_SetVectorUnknownNode(t *testing.T) {
	gs := openStore(t, "graph-vector-missing")

	err := gs.ExecuteWrite(context.Background(), func(ctx context.Context, tx store.WriteTx) error {
		return tx.SetVector(ctx, store.EntityID(42), "embedding", []float32{1, 2, 3})
	})
	require.Error(t, err)
	assert.True(t, graphidxerr.IsNotFound(err))
}

func TestGraphStore_WriteRollsBackOnError(t *testing.T) {
	gs := openStore(t, "graph-rollback")
	ctx := context.Background()
	ids := seedProducts(t, gs, "Laptop", "Phone")

	boom := errors.New("boom")
	err := gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		if err := tx.SetVector(ctx, ids[0], "embedding", []float32{1, 0, 0}); err != nil {
			return err
		}
		if _, err := tx.CreateNode(ctx, "Product", map[string]any{"name": "Watch"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Nil(t, getNode(t, gs, ids[0]).Vectors)

	err = gs.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
		n, err := tx.CountNodes(ctx, "Product")
		assert.Equal(t, 2, n)
		return err
	})
	require.NoError(t, err)
}

func TestGraphStore_CreateRelationship(t *testing.T) {
	gs := openStore(t, "graph-rels")
	ctx := context.Background()

	err := gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		alice, err := tx.CreateNode(ctx, "Person", map[string]any{"name": "Alice"})
		if err != nil {
			return err
		}
		laptop, err := tx.CreateNode(ctx, "Product", map[string]any{"name": "Laptop"})
		if err != nil {
			return err
		}
		relID, err := tx.CreateRelationship(ctx, alice, "BOUGHT", laptop)
		assert.Positive(t, relID)
		return err
	})
	require.NoError(t, err)

	err = gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		_, err := tx.CreateRelationship(ctx, store.EntityID(1), "BOUGHT", store.EntityID(777))
		return err
	})
	assert.True(t, graphidxerr.IsNotFound(err))
}

func TestGraphStore_InvalidIdentifiers(t *testing.T) {
	gs := openStore(t, "graph-invalid")

	err := gs.ExecuteWrite(context.Background(), func(ctx context.Context, tx store.WriteTx) error {
		_, err := tx.CreateNode(ctx, "Pro duct", nil)
		return err
	})
	assert.True(t, graphidxerr.HasCode(err, graphidxerr.CodeStoreInvalidInput))

	err = gs.ExecuteWrite(context.Background(), func(ctx context.Context, tx store.WriteTx) error {
		_, err := tx.CreateNode(ctx, "Product", map[string]any{"bad key": 1})
		return err
	})
	assert.True(t, graphidxerr.HasCode(err, graphidxerr.CodeStoreInvalidInput))
}

func TestGraphStore_ResetClearsGraphAndIndexContents(t *testing.T) {
	gs := openStore(t, "graph-reset")
	ctx := context.Background()
	seedProducts(t, gs, "Laptop", "Phone")

	_, err := gs.Indexes().Create(ctx, store.IndexDefinition{
		Name: "product_names", Kind: store.IndexKindFulltext, Label: "Product", Properties: []string{"name"},
	})
	require.NoError(t, err)

	err = gs.ExecuteWrite(ctx, func(ctx context.Context, tx store.WriteTx) error {
		return tx.Reset(ctx)
	})
	require.NoError(t, err)

	err = gs.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
		n, err := tx.CountNodes(ctx, "Product")
		assert.Zero(t, n)
		return err
	})
	require.NoError(t, err)

	info, err := gs.Indexes().Get(ctx, "product_names")
	require.NoError(t, err)
	assert.Zero(t, info.Entries)
}

func TestNewGraphStore_UnopenablePathIsUnavailable(t *testing.T) {
	dir := testDir(t)
	dbPath := filepath.Join(dir, "graph.db")
	require.NoError(t, os.Mkdir(dbPath, 0o755))

	_, err := sqlite.NewGraphStore(dbPath)
	require.Error(t, err)
	assert.True(t, graphidxerr.IsUnavailable(err))
}

func TestNewGraphStore_EmptyPath(t *testing.T) {
	_, err := sqlite.NewGraphStore("  ")
	assert.True(t, graphidxerr.HasCode(err, graphidxerr.CodeStoreInvalidInput))
}

func TestGraphStore_VecVersion(t *testing.T) {
	gs := openStore(t, "graph-version")
	v, err := gs.VecVersion(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, v)
	require.NoError(t, gs.Ping(context.Background()))
}

func TestGraphStore_CheckFTS5(t *testing.T) {
	gs := openStore(t, "graph-fts5")
	err := gs.CheckFTS5(context.Background())
	require.NoError(t, err, "fulltext indexes need the sqlite_fts5 build tag; run make test")
}

func TestGraphStore_MemoryDSNSharesOneDatabase(t *testing.T) {
	gs, err := sqlite.NewGraphStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })
	ctx := context.Background()

	ids := seedProducts(t, gs, "Laptop", "Phone", "Tablet")

	for range 3 {
		var got []store.EntityID
		err := gs.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
			var err error
			got, err = tx.NodeIDs(ctx, "Product")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, ids, got)
	}

	info, err := gs.Indexes().Create(ctx, store.IndexDefinition{
		Name:       "product_names",
		Kind:       store.IndexKindFulltext,
		Label:      "Product",
		Properties: []string{"name"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, info.Entries)
}

func TestGraphStore_WriterWaitsForOpenRead(t *testing.T) {
	gs := openStore(t, "graph-read-serialize")
	ctx := context.Background()
	seedProducts(t, gs, "Laptop", "Phone", "Tablet")

	done := make(chan error, 1)
	err := gs.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
		go func() {
			done <- gs.ExecuteWrite(ctx, func(ctx context.Context, wtx store.WriteTx) error {
				_, err := wtx.CreateNode(ctx, "Product", map[string]any{"name": "Monitor"})
				return err
			})
		}()

		select {
		case err := <-done:
			return fmt.Errorf("write finished while a read was open: %v", err)
		case <-time.After(200 * time.Millisecond):
		}

		n, err := tx.CountNodes(ctx, "Product")
		if err != nil {
			return err
		}
		if n != 3 {
			return fmt.Errorf("read saw %d products, want 3", n)
		}
		return nil
	})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("write did not complete after the read finished")
	}

	var n int
	err = gs.ExecuteRead(ctx, func(ctx context.Context, tx store.ReadTx) error {
		var err error
		n, err = tx.CountNodes(ctx, "Product")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
