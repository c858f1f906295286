// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package bootstrap sequences seeding, annotation and index provisioning.
package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sigil-dev/graphidx/internal/annotate"
	"github.com/sigil-dev/graphidx/internal/entity"
	"github.com/sigil-dev/graphidx/internal/index"
	"github.com/sigil-dev/graphidx/internal/seed"
	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Step names a stage of a bootstrap run.
type Step string

const (
	StepSeed          Step = "seed"
	StepResolve       Step = "resolve"
	StepBatch         Step = "batch"
	StepAttach        Step = "attach"
	StepVectorIndex   Step = "vector_index"
	StepFulltextIndex Step = "fulltext_index"
)

// Seeder populates the graph before entities are resolved.
type Seeder interface {
	Seed(ctx context.Context) (seed.Result, error)
}

// Plan is what a run resolves, attaches and provisions.
type Plan struct {
	TargetLabel       string
	EmbeddingProperty string
	// Vectors pair positionally with the resolved entities.
	Vectors       [][]float32
	VectorIndex   store.IndexDefinition
	FulltextIndex store.IndexDefinition
}

// Hooks are optional callbacks fired after each successful step.
type Hooks struct {
	OnStep func(Step)
}

// OrchestratorConfig holds dependencies for the Orchestrator.
type OrchestratorConfig struct {
	Graph store.GraphStore
	// Seeder is optional; a nil Seeder skips the seed step.
	Seeder Seeder
	Plan   Plan
	Logger *slog.Logger
	Hooks  *Hooks
}

// Orchestrator runs the bootstrap sequence once per Run call.
type Orchestrator struct {
	seeder      Seeder
	resolver    *entity.Resolver
	annotator   *annotate.Annotator
	provisioner *index.Provisioner
	plan        Plan
	logger      *slog.Logger
	hooks       *Hooks
}

// NewOrchestrator creates an Orchestrator with the given dependencies.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		seeder:      cfg.Seeder,
		resolver:    entity.NewResolver(cfg.Graph, logger),
		annotator:   annotate.NewAnnotator(cfg.Graph, logger),
		provisioner: index.NewProvisioner(cfg.Graph.Indexes(), logger),
		plan:        cfg.Plan,
		logger:      logger,
		hooks:       cfg.Hooks,
	}
}

// Run executes SEED → RESOLVE → BATCH → ATTACH → VECTOR_INDEX →
// FULLTEXT_INDEX. Each step runs only if the previous one succeeded; the
// first failure ends the run and nothing is retried or rolled back.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	r := &Report{RunID: uuid.New(), StartedAt: time.Now()}
	o.logger.InfoContext(ctx, "bootstrap started", "run_id", r.RunID)

	// Step 1: SEED.
	if o.seeder != nil {
		res, err := o.seeder.Seed(ctx)
		if err != nil {
			return o.fail(ctx, r, StepSeed, err)
		}
		r.Seeded = res.Nodes
		o.fire(StepSeed)
	}

	// Step 2: RESOLVE.
	ids, err := o.resolver.Resolve(ctx, o.plan.TargetLabel)
	if err != nil {
		return o.fail(ctx, r, StepResolve, err)
	}
	r.EntitiesResolved = len(ids)
	o.fire(StepResolve)

	// Step 3: BATCH. A count mismatch stops the run before any write.
	batch, err := annotate.NewBatch(ids, o.plan.Vectors)
	if err != nil {
		return o.fail(ctx, r, StepBatch, graphidxerr.With(err, graphidxerr.FieldLabel(o.plan.TargetLabel)))
	}
	o.fire(StepBatch)

	// Step 4: ATTACH.
	n, err := o.annotator.Attach(ctx, batch, o.plan.EmbeddingProperty)
	if err != nil {
		return o.fail(ctx, r, StepAttach, err)
	}
	r.VectorsAttached = n
	o.fire(StepAttach)

	// Steps 5 and 6: VECTOR_INDEX, FULLTEXT_INDEX.
	for _, s := range []struct {
		step Step
		def  store.IndexDefinition
	}{
		{StepVectorIndex, o.plan.VectorIndex},
		{StepFulltextIndex, o.plan.FulltextIndex},
	} {
		ack, err := o.provisioner.Provision(ctx, s.def)
		if err != nil {
			return o.fail(ctx, r, s.step, err)
		}
		r.Indexes = append(r.Indexes, ack)
		r.IndexesProvisioned++
		o.fire(s.step)
	}

	r.FinishedAt = time.Now()
	o.logger.InfoContext(ctx, "bootstrap completed", "report", r)
	return r
}

func (o *Orchestrator) fail(ctx context.Context, r *Report, step Step, err error) *Report {
	r.FailedStep = step
	r.Err = graphidxerr.With(err, graphidxerr.FieldStep(string(step)))
	r.FinishedAt = time.Now()
	o.logger.ErrorContext(ctx, "bootstrap halted", "report", r)
	return r
}

func (o *Orchestrator) fire(step Step) {
	if o.hooks != nil && o.hooks.OnStep != nil {
		o.hooks.OnStep(step)
	}
}
