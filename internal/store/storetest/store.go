// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package storetest provides an in-memory store.GraphStore for tests that
// need to count store calls or inject failures.
package storetest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

var (
	_ store.GraphStore   = (*Store)(nil)
	_ store.IndexCatalog = (*Catalog)(nil)
)

// Calls counts the operations a Store has served.
type Calls struct {
	Reads      int
	Writes     int
	SetVectors int
	Exists     int
	Drops      int
	Creates    int
}

// Store is an in-memory graph store. Write transactions work on a copy of
// the nodes and only replace the originals when fn succeeds.
type Store struct {
	mu      sync.Mutex
	nodes   map[store.EntityID]*store.Node
	nextID  store.EntityID
	calls   Calls
	catalog *Catalog

	// FailWrite, when set, is returned by ExecuteWrite before fn runs.
	FailWrite error
	// FailSetVectorAt makes the n-th SetVector call (1-based) inside a
	// transaction fail with EntityNotFound. Zero disables it.
	FailSetVectorAt int
}

// New returns an empty Store. Ids start at 1.
func New() *Store {
	s := &Store{nodes: make(map[store.EntityID]*store.Node), nextID: 1}
	s.catalog = &Catalog{store: s, indexes: make(map[string]*store.IndexInfo)}
	return s
}

// AddNode inserts a node with a caller-chosen id.
func (s *Store) AddNode(id store.EntityID, label string, props map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = &store.Node{ID: id, Label: label, Properties: props, CreatedAt: time.Now()}
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

// Node returns a copy of the stored node, or nil.
func (s *Store) Node(id store.EntityID) *store.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return cloneNode(n)
}

// Calls returns the call counters.
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Catalog returns the concrete index catalog for fault injection.
func (s *Store) Catalog() *Catalog { return s.catalog }

func (s *Store) ExecuteRead(ctx context.Context, fn func(ctx context.Context, tx store.ReadTx) error) error {
	s.mu.Lock()
	s.calls.Reads++
	tx := &txn{store: s, nodes: cloneNodes(s.nodes), nextID: s.nextID}
	s.mu.Unlock()
	return fn(ctx, tx)
}

func (s *Store) ExecuteWrite(ctx context.Context, fn func(ctx context.Context, tx store.WriteTx) error) error {
	s.mu.Lock()
	s.calls.Writes++
	if s.FailWrite != nil {
		s.mu.Unlock()
		return s.FailWrite
	}
	tx := &txn{store: s, nodes: cloneNodes(s.nodes), nextID: s.nextID}
	s.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = tx.nodes
	s.nextID = tx.nextID
	if tx.reset {
		for _, info := range s.catalog.indexes {
			info.Entries = 0
		}
	}
	return nil
}

func (s *Store) Indexes() store.IndexCatalog { return s.catalog }

func (s *Store) Close() error { return nil }

type txn struct {
	store    *Store
	nodes    map[store.EntityID]*store.Node
	nextID   store.EntityID
	setCalls int
	reset    bool
}

func (t *txn) NodeIDs(_ context.Context, label string) ([]store.EntityID, error) {
	ids := make([]store.EntityID, 0)
	for id, n := range t.nodes {
		if n.Label == label {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (t *txn) CountNodes(ctx context.Context, label string) (int, error) {
	ids, _ := t.NodeIDs(ctx, label)
	return len(ids), nil
}

func (t *txn) GetNode(_ context.Context, id store.EntityID) (*store.Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	return cloneNode(n), nil
}

func (t *txn) CreateNode(_ context.Context, label string, props map[string]any) (store.EntityID, error) {
	id := t.nextID
	t.nextID++
	t.nodes[id] = &store.Node{ID: id, Label: label, Properties: maps.Clone(props), CreatedAt: time.Now()}
	return id, nil
}

func (t *txn) CreateRelationship(_ context.Context, from store.EntityID, _ string, to store.EntityID) (int64, error) {
	for _, id := range []store.EntityID{from, to} {
		if _, ok := t.nodes[id]; !ok {
			return 0, notFound(id)
		}
	}
	return int64(from)<<32 | int64(to), nil
}

func (t *txn) SetVector(_ context.Context, id store.EntityID, property string, vector []float32) error {
	t.store.mu.Lock()
	t.store.calls.SetVectors++
	failAt := t.store.FailSetVectorAt
	t.store.mu.Unlock()

	t.setCalls++
	if failAt > 0 && t.setCalls == failAt {
		return notFound(id)
	}
	n, ok := t.nodes[id]
	if !ok {
		return notFound(id)
	}
	if n.Vectors == nil {
		n.Vectors = make(map[string][]float32)
	}
	n.Vectors[property] = slices.Clone(vector)
	return nil
}

func (t *txn) Reset(context.Context) error {
	t.nodes = make(map[store.EntityID]*store.Node)
	t.reset = true
	return nil
}

// Catalog is the in-memory index catalog of a Store.
type Catalog struct {
	store   *Store
	indexes map[string]*store.IndexInfo

	// FailCreate, when set, is returned by Create.
	FailCreate error
	// FailExists, when set, is returned by Exists.
	FailExists error
}

// Seed registers an index directly, bypassing validation and counters.
func (c *Catalog) Seed(def store.IndexDefinition) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.indexes[def.Name] = &store.IndexInfo{IndexDefinition: def, CreatedAt: time.Now()}
}

func (c *Catalog) Exists(_ context.Context, name string) (bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.calls.Exists++
	if c.FailExists != nil {
		return false, c.FailExists
	}
	_, ok := c.indexes[name]
	return ok, nil
}

func (c *Catalog) Get(_ context.Context, name string) (*store.IndexInfo, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	info, ok := c.indexes[name]
	if !ok {
		return nil, graphidxerr.New(graphidxerr.CodeIndexNotFound,
			fmt.Sprintf("index %s not found", name), graphidxerr.FieldIndex(name))
	}
	cp := *info
	return &cp, nil
}

func (c *Catalog) List(context.Context) ([]*store.IndexInfo, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	infos := make([]*store.IndexInfo, 0, len(c.indexes))
	for _, name := range slices.Sorted(maps.Keys(c.indexes)) {
		cp := *c.indexes[name]
		infos = append(infos, &cp)
	}
	return infos, nil
}

func (c *Catalog) Drop(_ context.Context, name string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.calls.Drops++
	delete(c.indexes, name)
	return nil
}

// Create registers the index and counts the nodes of the target label that
// carry a value for the indexed properties.
func (c *Catalog) Create(_ context.Context, def store.IndexDefinition) (*store.IndexInfo, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.calls.Creates++
	if c.FailCreate != nil {
		return nil, c.FailCreate
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if _, ok := c.indexes[def.Name]; ok {
		return nil, graphidxerr.New(graphidxerr.CodeIndexConflict,
			fmt.Sprintf("index %s already exists", def.Name), graphidxerr.FieldIndex(def.Name))
	}

	var entries int
	for _, n := range c.store.nodes {
		if n.Label != def.Label {
			continue
		}
		switch def.Kind {
		case store.IndexKindVector:
			if v, ok := n.Vectors[def.Properties[0]]; ok && len(v) == def.Dimensions {
				entries++
			}
		case store.IndexKindFulltext:
			for _, p := range def.Properties {
				if _, ok := n.Properties[p]; ok {
					entries++
					break
				}
			}
		}
	}

	info := &store.IndexInfo{IndexDefinition: def, Entries: entries, CreatedAt: time.Now()}
	c.indexes[def.Name] = info
	cp := *info
	return &cp, nil
}

func notFound(id store.EntityID) error {
	return graphidxerr.New(graphidxerr.CodeStoreEntityNotFound,
		fmt.Sprintf("entity %d not found", id), graphidxerr.FieldEntityID(int64(id)))
}

func cloneNodes(src map[store.EntityID]*store.Node) map[store.EntityID]*store.Node {
	dst := make(map[store.EntityID]*store.Node, len(src))
	for id, n := range src {
		dst[id] = cloneNode(n)
	}
	return dst
}

func cloneNode(n *store.Node) *store.Node {
	cp := *n
	cp.Properties = maps.Clone(n.Properties)
	if n.Vectors != nil {
		cp.Vectors = make(map[string][]float32, len(n.Vectors))
		for k, v := range n.Vectors {
			cp.Vectors[k] = slices.Clone(v)
		}
	}
	return &cp
}
