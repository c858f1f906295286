// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import "context"

// GraphStore is the store client boundary: transactional graph access plus
// the index catalog.
type GraphStore interface {
	// ExecuteRead runs fn against one read-only transaction, so every read
	// inside fn observes the same snapshot. Backends may serialize reads
	// with writers to provide it.
	ExecuteRead(ctx context.Context, fn func(ctx context.Context, tx ReadTx) error) error

	// ExecuteWrite runs fn against one write transaction. If fn returns an
	// error none of its writes are visible afterwards.
	ExecuteWrite(ctx context.Context, fn func(ctx context.Context, tx WriteTx) error) error

	Indexes() IndexCatalog
	Close() error
}

// ReadTx is the read surface of a transaction.
type ReadTx interface {
	// NodeIDs returns the ids of all nodes with the label in creation order.
	// No match yields an empty slice.
	NodeIDs(ctx context.Context, label string) ([]EntityID, error)
	GetNode(ctx context.Context, id EntityID) (*Node, error)
	CountNodes(ctx context.Context, label string) (int, error)
}

// WriteTx is the write surface of a transaction.
type WriteTx interface {
	ReadTx

	CreateNode(ctx context.Context, label string, props map[string]any) (EntityID, error)
	CreateRelationship(ctx context.Context, from EntityID, relType string, to EntityID) (int64, error)

	// SetVector creates or overwrites the vector property on an existing
	// node. It never creates nodes.
	SetVector(ctx context.Context, id EntityID, property string, vector []float32) error

	// Reset deletes every node together with its properties, vectors and
	// relationships. Index definitions are left in place.
	Reset(ctx context.Context) error
}

// IndexCatalog manages the store-global index namespace. Index DDL is not
// part of any graph transaction.
type IndexCatalog interface {
	Exists(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (*IndexInfo, error)
	List(ctx context.Context) ([]*IndexInfo, error)

	// Drop removes the named index. Dropping an absent index is not an error.
	Drop(ctx context.Context, name string) error

	// Create builds a new index. It fails with a conflict if an index of the
	// same name already exists.
	Create(ctx context.Context, def IndexDefinition) (*IndexInfo, error)
}
