// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sigil-dev/graphidx/internal/bootstrap"
	"github.com/sigil-dev/graphidx/internal/seed"
	"github.com/sigil-dev/graphidx/internal/store"
	"github.com/sigil-dev/graphidx/internal/store/sqlite"
	"github.com/sigil-dev/graphidx/internal/store/storetest"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleVectors = [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}, {0.7, 0.8, 0.9}}

func samplePlan() bootstrap.Plan {
	return bootstrap.Plan{
		TargetLabel:       "Product",
		EmbeddingProperty: "embedding",
		Vectors:           sampleVectors,
		VectorIndex: store.IndexDefinition{
			Name:       "product_embeddings",
			Kind:       store.IndexKindVector,
			Label:      "Product",
			Properties: []string{"embedding"},
			Dimensions: 3,
			Similarity: store.SimilarityCosine,
		},
		FulltextIndex: store.IndexDefinition{
			Name:       "product_names",
			Kind:       store.IndexKindFulltext,
			Label:      "Product",
			Properties: []string{"name"},
		},
	}
}

func productStore() *storetest.Store {
	mem := storetest.New()
	mem.AddNode(10, "Product", map[string]any{"name": "Laptop"})
	mem.AddNode(11, "Product", map[string]any{"name": "Phone"})
	mem.AddNode(12, "Product", map[string]any{"name": "Tablet"})
	return mem
}

type stubSeeder struct {
	result seed.Result
	err    error
	calls  int
}

func (s *stubSeeder) Seed(context.Context) (seed.Result, error) {
	s.calls++
	return s.result, s.err
}

func TestRun_SequencesEveryStep(t *testing.T) {
	mem := productStore()
	var steps []bootstrap.Step

	o := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{
		Graph:  mem,
		Seeder: &stubSeeder{result: seed.Result{Nodes: 3}},
		Plan:   samplePlan(),
		Hooks:  &bootstrap.Hooks{OnStep: func(s bootstrap.Step) { steps = append(steps, s) }},
	})

	r := o.Run(context.Background())
	require.True(t, r.OK(), "unexpected error: %v", r.Err)
	assert.Equal(t, []bootstrap.Step{
		bootstrap.StepSeed,
		bootstrap.StepResolve,
		bootstrap.StepBatch,
		bootstrap.StepAttach,
		bootstrap.StepVectorIndex,
		bootstrap.StepFulltextIndex,
	}, steps)

	assert.Equal(t, 3, r.Seeded)
	assert.Equal(t, 3, r.EntitiesResolved)
	assert.Equal(t, 3, r.VectorsAttached)
	assert.Equal(t, 2, r.IndexesProvisioned)
	require.Len(t, r.Indexes, 2)
	assert.Equal(t, "product_embeddings", r.Indexes[0].Name)
	assert.Equal(t, 3, r.Indexes[0].Entries)
	assert.Equal(t, "product_names", r.Indexes[1].Name)
	assert.Empty(t, r.FailedStep)
	assert.NotEqual(t, [16]byte{}, [16]byte(r.RunID))

	for i, id := range []store.EntityID{10, 11, 12} {
		assert.Equal(t, sampleVectors[i], mem.Node(id).Vectors["embedding"])
	}
}

func TestRun_NilSeederSkipsSeed(t *testing.T) {
	mem := productStore()
	var steps []bootstrap.Step

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{
		Graph: mem,
		Plan:  samplePlan(),
		Hooks: &bootstrap.Hooks{OnStep: func(s bootstrap.Step) { steps = append(steps, s) }},
	}).Run(context.Background())

	require.True(t, r.OK())
	assert.Zero(t, r.Seeded)
	assert.NotContains(t, steps, bootstrap.StepSeed)
}

func TestRun_SeedFailureHaltsBeforeResolve(t *testing.T) {
	mem := productStore()
	seedErr := graphidxerr.New(graphidxerr.CodeStoreUnavailable, "connection refused")

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{
		Graph:  mem,
		Seeder: &stubSeeder{err: seedErr},
		Plan:   samplePlan(),
	}).Run(context.Background())

	require.False(t, r.OK())
	assert.Equal(t, bootstrap.StepSeed, r.FailedStep)
	assert.True(t, errors.Is(r.Err, seedErr))
	assert.True(t, graphidxerr.IsUnavailable(r.Err))
	assert.Equal(t, "seed", graphidxerr.FieldsOf(r.Err)["step"])
	assert.Equal(t, storetest.Calls{}, mem.Calls())
}

func TestRun_CountMismatchStopsBeforeWrite(t *testing.T) {
	mem := productStore()
	plan := samplePlan()
	plan.Vectors = sampleVectors[:2]

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{Graph: mem, Plan: plan}).Run(context.Background())

	require.False(t, r.OK())
	assert.Equal(t, bootstrap.StepBatch, r.FailedStep)
	assert.True(t, graphidxerr.HasCode(r.Err, graphidxerr.CodeAnnotateBatchSizeMismatch))
	assert.Equal(t, 3, r.EntitiesResolved)
	assert.Zero(t, r.VectorsAttached)

	calls := mem.Calls()
	assert.Zero(t, calls.Writes)
	assert.Zero(t, calls.SetVectors)
	assert.Zero(t, calls.Exists)
	assert.Zero(t, calls.Creates)
}

func TestRun_AttachFailureHaltsBeforeIndexes(t *testing.T) {
	mem := productStore()
	mem.FailSetVectorAt = 2

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{Graph: mem, Plan: samplePlan()}).Run(context.Background())

	require.False(t, r.OK())
	assert.Equal(t, bootstrap.StepAttach, r.FailedStep)
	assert.True(t, graphidxerr.IsNotFound(r.Err))
	assert.Zero(t, r.VectorsAttached)
	assert.Zero(t, mem.Calls().Exists)
	assert.Nil(t, mem.Node(10).Vectors, "failed batch leaves no partial writes")
}

func TestRun_VectorIndexFailureSkipsFulltext(t *testing.T) {
	mem := productStore()
	mem.Catalog().FailCreate = graphidxerr.New(graphidxerr.CodeIndexConflict, "index exists")

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{Graph: mem, Plan: samplePlan()}).Run(context.Background())

	require.False(t, r.OK())
	assert.Equal(t, bootstrap.StepVectorIndex, r.FailedStep)
	assert.True(t, graphidxerr.IsConflict(r.Err))
	assert.Equal(t, 3, r.VectorsAttached)
	assert.Zero(t, r.IndexesProvisioned)
	assert.Equal(t, 1, mem.Calls().Creates, "no retry and no fulltext attempt")

	// Attached vectors stay attached.
	assert.Equal(t, sampleVectors[0], mem.Node(10).Vectors["embedding"])
}

func TestRun_InvalidFulltextDefinition(t *testing.T) {
	mem := productStore()
	plan := samplePlan()
	plan.FulltextIndex.Properties = nil

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{Graph: mem, Plan: plan}).Run(context.Background())

	require.False(t, r.OK())
	assert.Equal(t, bootstrap.StepFulltextIndex, r.FailedStep)
	assert.True(t, graphidxerr.HasCode(r.Err, graphidxerr.CodeIndexDefinitionInvalid))
	assert.Equal(t, 1, r.IndexesProvisioned)
	assert.Equal(t, 1, mem.Calls().Creates)
}

func TestReport_LogValue(t *testing.T) {
	mem := productStore()
	plan := samplePlan()
	plan.Vectors = nil

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{Graph: mem, Plan: plan, Logger: logger}).Run(context.Background())
	require.False(t, r.OK())

	out := buf.String()
	assert.Contains(t, out, "bootstrap halted")
	assert.Contains(t, out, "report.failed_step=batch")
	assert.Contains(t, out, "report.code=annotate.batch.size_mismatch")
	assert.Contains(t, out, "report.entities_resolved=3")
}

func TestRun_SQLiteEndToEnd(t *testing.T) {
	gs, err := sqlite.NewGraphStore(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })

	fixture, err := seed.Default()
	require.NoError(t, err)
	plan := samplePlan()
	plan.Vectors = fixture.Vectors

	run := func() *bootstrap.Report {
		return bootstrap.NewOrchestrator(bootstrap.OrchestratorConfig{
			Graph:  gs,
			Seeder: seed.NewSeeder(gs, fixture, true, nil),
			Plan:   plan,
		}).Run(context.Background())
	}

	first := run()
	require.True(t, first.OK(), "unexpected error: %v", first.Err)
	assert.Equal(t, 6, first.Seeded)
	assert.Equal(t, 3, first.EntitiesResolved)
	assert.Equal(t, 3, first.VectorsAttached)
	assert.Equal(t, 2, first.IndexesProvisioned)
	for _, ack := range first.Indexes {
		assert.False(t, ack.Replaced)
		assert.Equal(t, 3, ack.Entries, ack.Name)
	}

	second := run()
	require.True(t, second.OK(), "unexpected error: %v", second.Err)
	for _, ack := range second.Indexes {
		assert.True(t, ack.Replaced)
		assert.Equal(t, store.IndexStateActive, ack.State)
		assert.Equal(t, 3, ack.Entries, ack.Name)
	}

	infos, err := gs.Indexes().List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "product_embeddings", infos[0].Name)
	assert.Equal(t, "product_names", infos[1].Name)
}
