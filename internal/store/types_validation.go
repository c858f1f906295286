// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"fmt"
	"regexp"
	"strings"

	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// identRe restricts index names, labels and property names to plain SQL
// identifiers since backends materialise them as tables and columns.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedFulltextProperties are claimed by fulltext index tables: the
// entity id column and the FTS5 hidden columns.
var reservedFulltextProperties = map[string]bool{
	"entity_id": true,
	"rank":      true,
	"rowid":     true,
}

// ValidIdentifier reports whether s can be used as an index name, label or
// property name.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Valid reports whether the kind is a known index kind.
func (k IndexKind) Valid() bool {
	switch k {
	case IndexKindVector, IndexKindFulltext:
		return true
	default:
		return false
	}
}

// Valid reports whether the similarity function is recognised.
func (s Similarity) Valid() bool {
	switch s {
	case SimilarityCosine, SimilarityEuclidean:
		return true
	default:
		return false
	}
}

// ParseSimilarity normalises a user-supplied similarity function name.
// "l2" is accepted as an alias for euclidean.
func ParseSimilarity(s string) (Similarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine":
		return SimilarityCosine, nil
	case "euclidean", "l2":
		return SimilarityEuclidean, nil
	default:
		return "", graphidxerr.Errorf(graphidxerr.CodeIndexDefinitionInvalid,
			"similarity function must be one of [cosine, euclidean], got %q", s)
	}
}

// Validate checks the definition before any store call is made.
func (d IndexDefinition) Validate() error {
	field := graphidxerr.FieldIndex(d.Name)

	if !ValidIdentifier(d.Name) {
		return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
			fmt.Sprintf("index definition: name must be a plain identifier, got %q", d.Name), field)
	}
	if !d.Kind.Valid() {
		return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
			fmt.Sprintf("index definition: kind must be one of [vector, fulltext], got %q", string(d.Kind)), field)
	}
	if !ValidIdentifier(d.Label) {
		return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
			fmt.Sprintf("index definition: label must be a plain identifier, got %q", d.Label), field)
	}
	if len(d.Properties) == 0 {
		return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
			"index definition: at least one property is required", field)
	}
	seen := make(map[string]bool, len(d.Properties))
	for _, p := range d.Properties {
		if !ValidIdentifier(p) {
			return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
				fmt.Sprintf("index definition: property must be a plain identifier, got %q", p), field)
		}
		if seen[p] {
			return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
				fmt.Sprintf("index definition: duplicate property %q", p), field)
		}
		seen[p] = true
	}

	switch d.Kind {
	case IndexKindVector:
		if d.Dimensions <= 0 {
			return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
				"index definition: vector index requires dimensions > 0",
				field, graphidxerr.Field("dimensions", d.Dimensions))
		}
		if !d.Similarity.Valid() {
			return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
				fmt.Sprintf("index definition: similarity function must be one of [cosine, euclidean], got %q", string(d.Similarity)), field)
		}
		if len(d.Properties) != 1 {
			return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
				"index definition: vector index covers exactly one embedding property", field)
		}
	case IndexKindFulltext:
		if d.Dimensions != 0 || d.Similarity != "" {
			return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
				"index definition: dimensions and similarity apply to vector indexes only", field)
		}
		for _, p := range d.Properties {
			if reservedFulltextProperties[strings.ToLower(p)] {
				return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
					fmt.Sprintf("index definition: property name %q is reserved for fulltext indexes", p), field)
			}
		}
	}

	return nil
}
