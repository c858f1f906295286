// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// Compile-time interface check.
var _ store.IndexCatalog = (*IndexCatalog)(nil)

const (
	vectorTablePrefix   = "idx_vec_"
	fulltextTablePrefix = "idx_fts_"

	// ftsEntityColumn holds the node id in fulltext index tables.
	ftsEntityColumn = "entity_id"
)

// IndexCatalog implements store.IndexCatalog. Each operation runs in its own
// SQLite transaction, separate from any graph transaction.
type IndexCatalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// tableName returns the virtual table backing an index.
func tableName(name string, kind store.IndexKind) string {
	if kind == store.IndexKindVector {
		return vectorTablePrefix + name
	}
	return fulltextTablePrefix + name
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const catalogColumns = `name, kind, label, properties, dimensions, similarity, entries, created`

func scanInfo(scan func(dest ...any) error) (*store.IndexInfo, error) {
	var (
		info          store.IndexInfo
		kind, sim     string
		props, create string
	)
	if err := scan(&info.Name, &kind, &info.Label, &props, &info.Dimensions, &sim, &info.Entries, &create); err != nil {
		return nil, err
	}
	info.Kind = store.IndexKind(kind)
	info.Similarity = store.Similarity(sim)
	info.CreatedAt = parseTime(create)
	if err := json.Unmarshal([]byte(props), &info.Properties); err != nil {
		return nil, graphidxerr.Errorf(graphidxerr.CodeStoreDatabaseFailure, "decoding properties of index %s: %w", info.Name, err)
	}
	return &info, nil
}

func (c *IndexCatalog) get(ctx context.Context, q queryer, name string) (*store.IndexInfo, error) {
	row := q.QueryRowContext(ctx, `SELECT `+catalogColumns+` FROM index_catalog WHERE name = ?`, name)
	info, err := scanInfo(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, graphidxerr.New(graphidxerr.CodeIndexNotFound,
				fmt.Sprintf("index %s not found", name), graphidxerr.FieldIndex(name))
		}
		return nil, wrapErr(err, "getting index %s", name)
	}
	return info, nil
}

func (c *IndexCatalog) list(ctx context.Context, q queryer) ([]*store.IndexInfo, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+catalogColumns+` FROM index_catalog ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err, "listing indexes")
	}
	defer func() { _ = rows.Close() }()

	infos := make([]*store.IndexInfo, 0)
	for rows.Next() {
		info, err := scanInfo(rows.Scan)
		if err != nil {
			return nil, wrapErr(err, "scanning index catalog row")
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "iterating index catalog")
	}
	return infos, nil
}

// Exists reports whether an index with the name is registered.
func (c *IndexCatalog) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM index_catalog WHERE name = ?`, name).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, wrapErr(err, "looking up index %s", name)
	}
	return true, nil
}

// Get returns the catalog entry of the named index.
func (c *IndexCatalog) Get(ctx context.Context, name string) (*store.IndexInfo, error) {
	return c.get(ctx, c.db, name)
}

// List returns every registered index ordered by name.
func (c *IndexCatalog) List(ctx context.Context) ([]*store.IndexInfo, error) {
	return c.list(ctx, c.db)
}

// Drop removes the catalog entry and its virtual table. An absent name is a
// no-op.
func (c *IndexCatalog) Drop(ctx context.Context, name string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err, "beginning drop of index %s", name)
	}
	defer func() { _ = tx.Rollback() }()

	info, err := c.get(ctx, tx, name)
	if err != nil {
		if graphidxerr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(tableName(info.Name, info.Kind))); err != nil {
		return wrapErr(err, "dropping index table for %s", name)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_catalog WHERE name = ?`, name); err != nil {
		return wrapErr(err, "removing index %s from catalog", name)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr(err, "committing drop of index %s", name)
	}

	c.logger.DebugContext(ctx, "index dropped", "index", name, "kind", info.Kind)
	return nil
}

// Create registers the index, creates its virtual table and fills it from
// the current graph, all in one transaction.
func (c *IndexCatalog) Create(ctx context.Context, def store.IndexDefinition) (*store.IndexInfo, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "beginning create of index %s", def.Name)
	}
	defer func() { _ = tx.Rollback() }()

	table := tableName(def.Name, def.Kind)
	if err := c.checkOrphan(ctx, tx, def.Name, table); err != nil {
		return nil, err
	}

	propsJSON, err := json.Marshal(def.Properties)
	if err != nil {
		return nil, graphidxerr.Errorf(graphidxerr.CodeIndexDefinitionInvalid, "marshalling index properties: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO index_catalog (name, kind, label, properties, dimensions, similarity, entries, created)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		def.Name, string(def.Kind), def.Label, string(propsJSON), def.Dimensions, string(def.Similarity), formatTime(now),
	)
	if err != nil {
		if isConstraint(err) {
			return nil, conflict(def.Name, err)
		}
		return nil, wrapErr(err, "registering index %s", def.Name)
	}

	var entries int
	switch def.Kind {
	case store.IndexKindVector:
		entries, err = c.buildVector(ctx, tx, table, def)
	case store.IndexKindFulltext:
		entries, err = c.buildFulltext(ctx, tx, table, def)
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE index_catalog SET entries = ? WHERE name = ?`, entries, def.Name); err != nil {
		return nil, wrapErr(err, "recording entry count of index %s", def.Name)
	}

	if err := tx.Commit(); err != nil {
		if isConstraint(err) {
			return nil, conflict(def.Name, err)
		}
		return nil, wrapErr(err, "committing create of index %s", def.Name)
	}

	c.logger.DebugContext(ctx, "index created",
		"index", def.Name,
		"kind", def.Kind,
		"label", def.Label,
		"entries", entries,
	)

	return &store.IndexInfo{IndexDefinition: def, Entries: entries, CreatedAt: now}, nil
}

// checkOrphan refuses to create over a backing table that exists without a
// catalog entry, which only another writer or a damaged catalog leaves.
func (c *IndexCatalog) checkOrphan(ctx context.Context, tx *sql.Tx, name, table string) error {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = ?`, table).Scan(&n)
	if err != nil {
		return wrapErr(err, "checking table of index %s", name)
	}
	if n > 0 {
		return graphidxerr.New(graphidxerr.CodeIndexConflict,
			fmt.Sprintf("index %s: table %s already exists", name, table),
			graphidxerr.FieldIndex(name))
	}
	return nil
}

func (c *IndexCatalog) buildVector(ctx context.Context, tx *sql.Tx, table string, def store.IndexDefinition) (int, error) {
	metric := "cosine"
	if def.Similarity == store.SimilarityEuclidean {
		metric = "l2"
	}
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE %s USING vec0(embedding float[%d] distance_metric=%s)`,
		quoteIdent(table), def.Dimensions, metric)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, wrapErr(err, "creating vector index table for %s", def.Name)
	}

	property := def.Properties[0]

	// Vectors whose length differs from the declared dimensions are left out
	// of the index rather than failing the build.
	var skipped int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM node_vectors v JOIN nodes n ON n.id = v.node_id
WHERE n.label = ? AND v.property = ? AND v.dims != ?`, def.Label, property, def.Dimensions).Scan(&skipped)
	if err != nil {
		return 0, wrapErr(err, "counting mismatched vectors for %s", def.Name)
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "vectors with mismatched dimensions not indexed",
			"index", def.Name,
			"property", property,
			"dimensions", def.Dimensions,
			"skipped", skipped,
		)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO `+quoteIdent(table)+` (rowid, embedding)
SELECT v.node_id, v.embedding FROM node_vectors v JOIN nodes n ON n.id = v.node_id
WHERE n.label = ? AND v.property = ? AND v.dims = ?
ORDER BY v.node_id`, def.Label, property, def.Dimensions)
	if err != nil {
		return 0, wrapErr(err, "populating vector index %s", def.Name)
	}
	return c.countEntries(ctx, tx, table, res)
}

func (c *IndexCatalog) buildFulltext(ctx context.Context, tx *sql.Tx, table string, def store.IndexDefinition) (int, error) {
	cols := make([]string, 0, len(def.Properties))
	for _, p := range def.Properties {
		cols = append(cols, quoteIdent(p))
	}
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE %s USING fts5(%s UNINDEXED, %s)`,
		quoteIdent(table), ftsEntityColumn, strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		if classify(err) == graphidxerr.CodeStoreModuleMissing {
			return 0, graphidxerr.Wrapf(err, graphidxerr.CodeStoreModuleMissing,
				"creating fulltext index %s: sqlite was built without FTS5 (build with -tags sqlite_fts5)", def.Name)
		}
		return 0, wrapErr(err, "creating fulltext index table for %s", def.Name)
	}

	// One selected column per property; nodes carrying none of the
	// properties are not indexed.
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`INSERT INTO ` + quoteIdent(table) + ` (` + ftsEntityColumn + `, ` + strings.Join(cols, ", ") + `) SELECT n.id`)
	for _, p := range def.Properties {
		qb.WriteString(`, (SELECT json_extract(p.value, '$') FROM node_properties p WHERE p.node_id = n.id AND p.key = ?)`)
		args = append(args, p)
	}
	placeholders := strings.Repeat("?,", len(def.Properties))
	placeholders = placeholders[:len(placeholders)-1]
	qb.WriteString(` FROM nodes n WHERE n.label = ? AND EXISTS (SELECT 1 FROM node_properties p WHERE p.node_id = n.id AND p.key IN (` + placeholders + `)) ORDER BY n.id`)
	args = append(args, def.Label)
	for _, p := range def.Properties {
		args = append(args, p)
	}

	res, err := tx.ExecContext(ctx, qb.String(), args...)
	if err != nil {
		return 0, wrapErr(err, "populating fulltext index %s", def.Name)
	}
	return c.countEntries(ctx, tx, table, res)
}

// countEntries prefers the driver's affected-row count and falls back to
// counting the table when a virtual table does not report changes.
func (c *IndexCatalog) countEntries(ctx context.Context, tx *sql.Tx, table string, res sql.Result) (int, error) {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return int(n), nil
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(table)).Scan(&n); err != nil {
		return 0, wrapErr(err, "counting entries of %s", table)
	}
	return n, nil
}

func conflict(name string, cause error) error {
	return graphidxerr.Wrap(cause, graphidxerr.CodeIndexConflict,
		fmt.Sprintf("index %s already exists", name),
		graphidxerr.FieldIndex(name))
}
