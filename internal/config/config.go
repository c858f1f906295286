// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"strings"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level graphidx configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Indexes IndexesConfig `mapstructure:"indexes"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

// StoreConfig selects the graph store and how to reach it.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Address string `mapstructure:"address"`
	// Credentials is a literal secret or a keyring://service/key reference.
	Credentials string `mapstructure:"credentials"`
}

// GraphConfig names the entities that receive vectors.
type GraphConfig struct {
	TargetLabel       string `mapstructure:"target_label"`
	EmbeddingProperty string `mapstructure:"embedding_property"`
}

// IndexesConfig holds the two indexes a bootstrap run provisions.
type IndexesConfig struct {
	Vector   VectorIndexConfig   `mapstructure:"vector"`
	Fulltext FulltextIndexConfig `mapstructure:"fulltext"`
}

// VectorIndexConfig describes the vector similarity index.
type VectorIndexConfig struct {
	Name       string `mapstructure:"name"`
	Dimensions int    `mapstructure:"dimensions"`
	Similarity string `mapstructure:"similarity"`
}

// FulltextIndexConfig describes the fulltext index.
type FulltextIndexConfig struct {
	Name       string   `mapstructure:"name"`
	Properties []string `mapstructure:"properties"`
}

// SeedConfig controls the sample data loaded before annotation.
type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Reset   bool `mapstructure:"reset"`
	// Fixture is a YAML fixture path; empty uses the built-in sample.
	Fixture string `mapstructure:"fixture"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.address", "graph.db")
	v.SetDefault("store.credentials", "")
	v.SetDefault("graph.target_label", "Product")
	v.SetDefault("graph.embedding_property", "embedding")
	v.SetDefault("indexes.vector.name", "product_embeddings")
	v.SetDefault("indexes.vector.dimensions", 3)
	v.SetDefault("indexes.vector.similarity", "cosine")
	v.SetDefault("indexes.fulltext.name", "product_names")
	v.SetDefault("indexes.fulltext.properties", []string{"name"})
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.reset", true)
	v.SetDefault("seed.fixture", "")
}

// SetupEnv binds GRAPHIDX_* environment variables, e.g.
// GRAPHIDX_STORE_ADDRESS for store.address.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("GRAPHIDX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, graphidxerr.Errorf(graphidxerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix GRAPHIDX_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, graphidxerr.Errorf(graphidxerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// StorageConfig returns the store factory settings. credentials is the
// already-resolved secret.
func (c *Config) StorageConfig(credentials string) *store.StorageConfig {
	return &store.StorageConfig{
		Backend:     c.Store.Backend,
		Address:     c.Store.Address,
		Credentials: credentials,
	}
}

// VectorIndexDefinition builds the vector index definition over the
// target label and embedding property.
func (c *Config) VectorIndexDefinition() store.IndexDefinition {
	sim, err := store.ParseSimilarity(c.Indexes.Vector.Similarity)
	if err != nil {
		// Keep the raw value so IndexDefinition.Validate reports it.
		sim = store.Similarity(c.Indexes.Vector.Similarity)
	}
	return store.IndexDefinition{
		Name:       c.Indexes.Vector.Name,
		Kind:       store.IndexKindVector,
		Label:      c.Graph.TargetLabel,
		Properties: []string{c.Graph.EmbeddingProperty},
		Dimensions: c.Indexes.Vector.Dimensions,
		Similarity: sim,
	}
}

// FulltextIndexDefinition builds the fulltext index definition over the
// target label.
func (c *Config) FulltextIndexDefinition() store.IndexDefinition {
	return store.IndexDefinition{
		Name:       c.Indexes.Fulltext.Name,
		Kind:       store.IndexKindFulltext,
		Label:      c.Graph.TargetLabel,
		Properties: c.Indexes.Fulltext.Properties,
	}
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateGraph()...)
	errs = append(errs, c.validateIndexes()...)

	return errs
}

func (c *Config) validateStore() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Store.Backend] {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: store.backend must be one of [sqlite], got %q",
			c.Store.Backend,
		))
	}

	if strings.TrimSpace(c.Store.Address) == "" {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue, "config: store.address must not be empty"))
	}

	return errs
}

func (c *Config) validateGraph() []error {
	var errs []error

	if !store.ValidIdentifier(c.Graph.TargetLabel) {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: graph.target_label must be a plain identifier, got %q",
			c.Graph.TargetLabel,
		))
	}

	if !store.ValidIdentifier(c.Graph.EmbeddingProperty) {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: graph.embedding_property must be a plain identifier, got %q",
			c.Graph.EmbeddingProperty,
		))
	}

	return errs
}

func (c *Config) validateIndexes() []error {
	var errs []error

	if !store.ValidIdentifier(c.Indexes.Vector.Name) {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: indexes.vector.name must be a plain identifier, got %q",
			c.Indexes.Vector.Name,
		))
	}

	if c.Indexes.Vector.Dimensions <= 0 {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: indexes.vector.dimensions must be greater than 0, got %d",
			c.Indexes.Vector.Dimensions,
		))
	}

	if _, err := store.ParseSimilarity(c.Indexes.Vector.Similarity); err != nil {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: indexes.vector.similarity must be one of [cosine, euclidean], got %q",
			c.Indexes.Vector.Similarity,
		))
	}

	if !store.ValidIdentifier(c.Indexes.Fulltext.Name) {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
			"config: indexes.fulltext.name must be a plain identifier, got %q",
			c.Indexes.Fulltext.Name,
		))
	}

	if len(c.Indexes.Fulltext.Properties) == 0 {
		errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue, "config: indexes.fulltext.properties must not be empty"))
	}
	for i, p := range c.Indexes.Fulltext.Properties {
		if !store.ValidIdentifier(p) {
			errs = append(errs, graphidxerr.Errorf(graphidxerr.CodeConfigValidateInvalidValue,
				"config: indexes.fulltext.properties[%d] must be a plain identifier, got %q",
				i, p,
			))
		}
	}

	return errs
}
