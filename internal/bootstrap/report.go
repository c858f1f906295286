// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sigil-dev/graphidx/internal/index"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Report records what a run completed. On failure the counts cover the
// steps finished before FailedStep.
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	Seeded             int
	EntitiesResolved   int
	VectorsAttached    int
	IndexesProvisioned int
	Indexes            []index.Ack

	FailedStep Step
	Err        error
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool {
	return r.Err == nil
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID.String()),
		slog.Duration("duration", r.Duration()),
		slog.Int("seeded", r.Seeded),
		slog.Int("entities_resolved", r.EntitiesResolved),
		slog.Int("vectors_attached", r.VectorsAttached),
		slog.Int("indexes_provisioned", r.IndexesProvisioned),
	}
	if r.Err != nil {
		attrs = append(attrs,
			slog.String("failed_step", string(r.FailedStep)),
			slog.String("code", string(graphidxerr.CodeOf(r.Err))),
			slog.String("error", r.Err.Error()),
		)
		if state, ok := graphidxerr.FieldsOf(r.Err)["index_state"]; ok {
			attrs = append(attrs, slog.Any("index_state", state))
		}
	}
	return slog.GroupValue(attrs...)
}
