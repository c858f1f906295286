// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Compile-time interface check.
var _ store.WriteTx = (*txn)(nil)

// txn adapts a *sql.Tx to store.ReadTx and store.WriteTx. Read transactions
// receive the same type behind the narrower interface.
type txn struct {
	tx      *sql.Tx
	catalog *IndexCatalog
}

func (t *txn) NodeIDs(ctx context.Context, label string) ([]store.EntityID, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id FROM nodes WHERE label = ? ORDER BY id`, label)
	if err != nil {
		return nil, wrapErr(err, "listing %s node ids", label)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]store.EntityID, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(err, "scanning node id")
		}
		ids = append(ids, store.EntityID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "iterating node ids")
	}
	return ids, nil
}

func (t *txn) CountNodes(ctx context.Context, label string) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE label = ?`, label).Scan(&n); err != nil {
		return 0, wrapErr(err, "counting %s nodes", label)
	}
	return n, nil
}

// GetNode reconstructs a node from its row, property rows and vector rows.
func (t *txn) GetNode(ctx context.Context, id store.EntityID) (*store.Node, error) {
	node := &store.Node{ID: id}
	var created string
	err := t.tx.QueryRowContext(ctx, `SELECT label, created FROM nodes WHERE id = ?`, int64(id)).Scan(&node.Label, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entityNotFound(id)
		}
		return nil, wrapErr(err, "getting node %d", id)
	}
	node.CreatedAt = parseTime(created)

	props, err := t.nodeProperties(ctx, id)
	if err != nil {
		return nil, err
	}
	node.Properties = props

	vectors, err := t.nodeVectors(ctx, id)
	if err != nil {
		return nil, err
	}
	node.Vectors = vectors

	return node, nil
}

func (t *txn) nodeProperties(ctx context.Context, id store.EntityID) (map[string]any, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT key, value FROM node_properties WHERE node_id = ?`, int64(id))
	if err != nil {
		return nil, wrapErr(err, "getting properties of node %d", id)
	}
	defer func() { _ = rows.Close() }()

	var props map[string]any
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, wrapErr(err, "scanning node property")
		}
		var val any
		if err := json.Unmarshal([]byte(raw), &val); err != nil {
			val = raw
		}
		if props == nil {
			props = make(map[string]any)
		}
		props[key] = val
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "iterating node properties")
	}
	return props, nil
}

func (t *txn) nodeVectors(ctx context.Context, id store.EntityID) (map[string][]float32, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT property, embedding FROM node_vectors WHERE node_id = ?`, int64(id))
	if err != nil {
		return nil, wrapErr(err, "getting vectors of node %d", id)
	}
	defer func() { _ = rows.Close() }()

	var vectors map[string][]float32
	for rows.Next() {
		var property string
		var blob []byte
		if err := rows.Scan(&property, &blob); err != nil {
			return nil, wrapErr(err, "scanning node vector")
		}
		vec, err := decodeFloat32(blob)
		if err != nil {
			return nil, graphidxerr.Errorf(graphidxerr.CodeStoreDatabaseFailure, "decoding vector %s of node %d: %w", property, id, err)
		}
		if vectors == nil {
			vectors = make(map[string][]float32)
		}
		vectors[property] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "iterating node vectors")
	}
	return vectors, nil
}

// CreateNode inserts a node and one row per property. Property values are
// stored as JSON.
func (t *txn) CreateNode(ctx context.Context, label string, props map[string]any) (store.EntityID, error) {
	if !store.ValidIdentifier(label) {
		return 0, graphidxerr.New(graphidxerr.CodeStoreInvalidInput,
			fmt.Sprintf("node label must be a plain identifier, got %q", label))
	}

	res, err := t.tx.ExecContext(ctx, `INSERT INTO nodes (label, created) VALUES (?, ?)`, label, formatTime(time.Now()))
	if err != nil {
		return 0, wrapErr(err, "inserting %s node", label)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr(err, "reading node id")
	}
	id := store.EntityID(rowID)

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	const q = `INSERT INTO node_properties (node_id, key, value) VALUES (?, ?, ?)
ON CONFLICT(node_id, key) DO UPDATE SET value = excluded.value`

	for _, key := range keys {
		if !store.ValidIdentifier(key) {
			return 0, graphidxerr.New(graphidxerr.CodeStoreInvalidInput,
				fmt.Sprintf("property name must be a plain identifier, got %q", key),
				graphidxerr.FieldLabel(label))
		}
		valJSON, err := json.Marshal(props[key])
		if err != nil {
			return 0, graphidxerr.Errorf(graphidxerr.CodeStoreInvalidInput, "marshalling property %s: %w", key, err)
		}
		if _, err := t.tx.ExecContext(ctx, q, rowID, key, string(valJSON)); err != nil {
			return 0, wrapErr(err, "putting property %s of node %d", key, id)
		}
	}

	return id, nil
}

func (t *txn) CreateRelationship(ctx context.Context, from store.EntityID, relType string, to store.EntityID) (int64, error) {
	if !store.ValidIdentifier(relType) {
		return 0, graphidxerr.New(graphidxerr.CodeStoreInvalidInput,
			fmt.Sprintf("relationship type must be a plain identifier, got %q", relType))
	}
	for _, id := range []store.EntityID{from, to} {
		if err := t.requireNode(ctx, id); err != nil {
			return 0, err
		}
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO relationships (from_id, type, to_id, created) VALUES (?, ?, ?, ?)`,
		int64(from), relType, int64(to), formatTime(time.Now()),
	)
	if err != nil {
		return 0, wrapErr(err, "inserting relationship %d-[%s]->%d", from, relType, to)
	}
	relID, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr(err, "reading relationship id")
	}
	return relID, nil
}

// SetVector upserts the vector annotation of an existing node.
func (t *txn) SetVector(ctx context.Context, id store.EntityID, property string, vector []float32) error {
	if !store.ValidIdentifier(property) {
		return graphidxerr.New(graphidxerr.CodeStoreInvalidInput,
			fmt.Sprintf("vector property must be a plain identifier, got %q", property))
	}
	if len(vector) == 0 {
		return graphidxerr.New(graphidxerr.CodeStoreInvalidInput, "vector must not be empty",
			graphidxerr.FieldEntityID(int64(id)))
	}
	if err := t.requireNode(ctx, id); err != nil {
		return err
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return graphidxerr.Errorf(graphidxerr.CodeStoreInvalidInput, "serializing vector for node %d: %w", id, err)
	}

	const q = `INSERT INTO node_vectors (node_id, property, dims, embedding, updated)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(node_id, property) DO UPDATE SET
	dims = excluded.dims,
	embedding = excluded.embedding,
	updated = excluded.updated`

	if _, err := t.tx.ExecContext(ctx, q, int64(id), property, len(vector), blob, formatTime(time.Now())); err != nil {
		return wrapErr(err, "putting vector %s of node %d", property, id)
	}
	return nil
}

// Reset detach-deletes every node. Index definitions survive but their
// contents are emptied so no index entry outlives its node.
func (t *txn) Reset(ctx context.Context) error {
	infos, err := t.catalog.list(ctx, t.tx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM `+quoteIdent(tableName(info.Name, info.Kind))); err != nil {
			return wrapErr(err, "clearing index %s", info.Name)
		}
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE index_catalog SET entries = 0`); err != nil {
		return wrapErr(err, "resetting index entry counts")
	}

	for _, table := range []string{"relationships", "node_vectors", "node_properties", "nodes"} {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return wrapErr(err, "clearing %s", table)
		}
	}
	return nil
}

func (t *txn) requireNode(ctx context.Context, id store.EntityID) error {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, int64(id)).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entityNotFound(id)
		}
		return wrapErr(err, "looking up node %d", id)
	}
	return nil
}

func entityNotFound(id store.EntityID) error {
	return graphidxerr.New(graphidxerr.CodeStoreEntityNotFound,
		fmt.Sprintf("entity %d not found", id),
		graphidxerr.FieldEntityID(int64(id)))
}
