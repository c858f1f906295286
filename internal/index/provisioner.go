// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package index provisions named indexes by idempotent replacement.
//
// Replacing an index is a drop followed by a create. The two steps are
// separate catalog operations, so a failure between them leaves the name
// ABSENT; errors returned after the drop carry index_state=ABSENT and the
// caller re-runs provisioning to reach ACTIVE again.
package index

import (
	"context"
	"log/slog"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Ack reports the outcome of a successful provision.
type Ack struct {
	Name     string
	Kind     store.IndexKind
	State    store.IndexState
	Replaced bool // an index of the same name existed and was dropped
	Entries  int
}

// Provisioner creates indexes, replacing any existing index of the same
// name. It does not verify that target entities are annotated.
type Provisioner struct {
	catalog store.IndexCatalog
	logger  *slog.Logger
}

// NewProvisioner creates a Provisioner. A nil logger falls back to
// slog.Default().
func NewProvisioner(catalog store.IndexCatalog, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{catalog: catalog, logger: logger}
}

// Provision ensures def is the only index under def.Name. An invalid
// definition fails before any catalog call.
func (p *Provisioner) Provision(ctx context.Context, def store.IndexDefinition) (Ack, error) {
	if err := def.Validate(); err != nil {
		return Ack{}, err
	}

	exists, err := p.catalog.Exists(ctx, def.Name)
	if err != nil {
		return Ack{}, graphidxerr.Wrap(err, graphidxerr.CodeStoreDatabaseFailure, "checking index",
			graphidxerr.FieldIndex(def.Name))
	}

	if exists {
		if err := p.catalog.Drop(ctx, def.Name); err != nil {
			return Ack{}, graphidxerr.Wrap(err, graphidxerr.CodeStoreDatabaseFailure, "dropping index",
				graphidxerr.FieldIndex(def.Name))
		}
		p.logger.InfoContext(ctx, "index dropped for replacement", "index", def.Name)
	}

	info, err := p.catalog.Create(ctx, def)
	if err != nil {
		fields := []graphidxerr.Attr{graphidxerr.FieldIndex(def.Name)}
		if exists {
			fields = append(fields, graphidxerr.FieldIndexState(string(store.IndexStateAbsent)))
			p.logger.ErrorContext(ctx, "index left absent after drop; re-run provisioning",
				"index", def.Name,
				"error", err,
			)
		}
		return Ack{}, graphidxerr.With(err, fields...)
	}

	ack := Ack{
		Name:     def.Name,
		Kind:     def.Kind,
		State:    store.IndexStateActive,
		Replaced: exists,
		Entries:  info.Entries,
	}
	p.logger.InfoContext(ctx, "index provisioned",
		"index", ack.Name,
		"kind", ack.Kind,
		"label", def.Label,
		"replaced", ack.Replaced,
		"entries", ack.Entries,
	)
	return ack, nil
}

// Drop removes the named index if it exists.
func (p *Provisioner) Drop(ctx context.Context, name string) error {
	if !store.ValidIdentifier(name) {
		return graphidxerr.New(graphidxerr.CodeIndexDefinitionInvalid,
			"index name must be a plain identifier", graphidxerr.FieldIndex(name))
	}
	if err := p.catalog.Drop(ctx, name); err != nil {
		return graphidxerr.Wrap(err, graphidxerr.CodeStoreDatabaseFailure, "dropping index",
			graphidxerr.FieldIndex(name))
	}
	p.logger.InfoContext(ctx, "index dropped", "index", name)
	return nil
}
