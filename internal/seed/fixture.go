// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package seed

import (
	_ "embed"
	"os"
	"strings"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleFixture []byte

// Fixture is a literal graph plus the vectors to attach to it.
type Fixture struct {
	Nodes         []NodeSpec         `yaml:"nodes"`
	Relationships []RelationshipSpec `yaml:"relationships"`
	Vectors       [][]float32        `yaml:"vectors"`
}

// NodeSpec declares one node. Key is local to the fixture and only used to
// wire relationships.
type NodeSpec struct {
	Key        string         `yaml:"key"`
	Label      string         `yaml:"label"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// RelationshipSpec declares a directed edge between two node keys.
type RelationshipSpec struct {
	From string `yaml:"from"`
	Type string `yaml:"type"`
	To   string `yaml:"to"`
}

// Default returns the embedded sample fixture.
func Default() (*Fixture, error) {
	return ParseFixture(sampleFixture)
}

// LoadFixture reads a fixture file. An empty path yields the embedded
// sample.
func LoadFixture(path string) (*Fixture, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, graphidxerr.Wrap(err, graphidxerr.CodeSeedLoadFailure, "reading fixture",
			graphidxerr.Field("path", path))
	}
	return ParseFixture(data)
}

// ParseFixture parses YAML data into a Fixture and validates it.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, graphidxerr.Errorf(graphidxerr.CodeSeedFixtureInvalid, "fixture parse: %s", err)
	}
	if errs := f.Validate(); len(errs) > 0 {
		return nil, graphidxerr.Join(errs...)
	}
	return &f, nil
}

// Validate returns every problem found in the fixture.
func (f *Fixture) Validate() []error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeSeedFixtureInvalid, "fixture validation: "+format, args...))
	}

	keys := make(map[string]bool, len(f.Nodes))
	for i, n := range f.Nodes {
		switch {
		case strings.TrimSpace(n.Key) == "":
			invalid("nodes[%d]: key must not be empty", i)
		case keys[n.Key]:
			invalid("nodes[%d]: duplicate key %q", i, n.Key)
		}
		keys[n.Key] = true

		if !store.ValidIdentifier(n.Label) {
			invalid("nodes[%d]: label must be a plain identifier, got %q", i, n.Label)
		}
		for prop := range n.Properties {
			if !store.ValidIdentifier(prop) {
				invalid("nodes[%d]: property name must be a plain identifier, got %q", i, prop)
			}
		}
	}

	for i, r := range f.Relationships {
		if !keys[r.From] {
			invalid("relationships[%d]: unknown from key %q", i, r.From)
		}
		if !keys[r.To] {
			invalid("relationships[%d]: unknown to key %q", i, r.To)
		}
		if !store.ValidIdentifier(r.Type) {
			invalid("relationships[%d]: type must be a plain identifier, got %q", i, r.Type)
		}
	}

	for i, v := range f.Vectors {
		if len(v) == 0 {
			invalid("vectors[%d]: must not be empty", i)
		} else if len(v) != len(f.Vectors[0]) {
			invalid("vectors[%d]: has %d components, want %d", i, len(v), len(f.Vectors[0]))
		}
	}

	return errs
}

// Dimensions returns the vector length shared by all fixture vectors.
func (f *Fixture) Dimensions() int {
	if len(f.Vectors) == 0 {
		return 0
	}
	return len(f.Vectors[0])
}
