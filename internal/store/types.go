// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"strconv"
	"time"
)

// --- Graph types ---

// EntityID is the store-assigned identifier of a node. It is stable for the
// lifetime of the node but not across delete and recreate, so it must never
// be used as an application-level key. Only the store dereferences it.
type EntityID int64

func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Node is a labelled entity with scalar properties and any vector
// annotations written onto it.
type Node struct {
	ID         EntityID
	Label      string
	Properties map[string]any
	Vectors    map[string][]float32
	CreatedAt  time.Time
}

// Relationship is a directed, typed edge between two nodes.
type Relationship struct {
	ID     int64
	FromID EntityID
	Type   string
	ToID   EntityID
}

// --- Index types ---

// IndexKind selects the physical index structure.
type IndexKind string

const (
	IndexKindVector   IndexKind = "vector"
	IndexKindFulltext IndexKind = "fulltext"
)

// Similarity is the distance function of a vector index.
type Similarity string

const (
	SimilarityCosine    Similarity = "cosine"
	SimilarityEuclidean Similarity = "euclidean"
)

// IndexState is the observable lifecycle state of a named index.
type IndexState string

const (
	IndexStateAbsent IndexState = "ABSENT"
	IndexStateActive IndexState = "ACTIVE"
)

// IndexDefinition describes a named index. The name is the identity key:
// at most one index of a given name exists at a time.
type IndexDefinition struct {
	Name       string
	Kind       IndexKind
	Label      string
	Properties []string
	// Dimensions and Similarity apply to vector indexes only.
	Dimensions int
	Similarity Similarity
}

// IndexInfo is a catalog entry for an index that currently exists.
type IndexInfo struct {
	IndexDefinition
	Entries   int
	CreatedAt time.Time
}
