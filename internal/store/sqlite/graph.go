// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.GraphStore = (*GraphStore)(nil)

// GraphStore implements store.GraphStore backed by a single SQLite database.
// Nodes, their properties, vector annotations and relationships live in
// plain tables; indexes are materialised as sqlite-vec vec0 and FTS5 virtual
// tables registered in index_catalog.
type GraphStore struct {
	db      *sql.DB
	logger  *slog.Logger
	catalog *IndexCatalog
}

// NewGraphStore opens (or creates) a SQLite database at dbPath and
// initialises the graph and catalog tables.
func NewGraphStore(dbPath string) (*GraphStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, graphidxerr.New(graphidxerr.CodeStoreInvalidInput, "sqlite: database path must not be empty")
	}

	// Every transaction takes the write reservation up front so a read
	// followed by a write inside ExecuteWrite cannot fail to upgrade.
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dbPath+sep+"_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, graphidxerr.Errorf(graphidxerr.CodeStoreUnavailable, "opening sqlite db: %w", err)
	}
	// Each connection to an in-memory database sees its own empty database.
	if isMemoryDSN(dbPath) {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, graphidxerr.Errorf(graphidxerr.CodeStoreUnavailable, "pinging sqlite db: %w", err)
	}

	if err := migrateGraph(db); err != nil {
		_ = db.Close()
		return nil, wrapErr(err, "migrating graph tables")
	}

	logger := slog.Default()
	return &GraphStore{
		db:      db,
		logger:  logger,
		catalog: &IndexCatalog{db: db, logger: logger},
	}, nil
}

func isMemoryDSN(dbPath string) bool {
	return strings.HasPrefix(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")
}

func migrateGraph(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS nodes (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	label   TEXT NOT NULL,
	created TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label, id);

CREATE TABLE IF NOT EXISTS node_properties (
	node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (node_id, key)
);

CREATE TABLE IF NOT EXISTS node_vectors (
	node_id   INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	property  TEXT NOT NULL,
	dims      INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	updated   TEXT NOT NULL,
	PRIMARY KEY (node_id, property)
);

CREATE TABLE IF NOT EXISTS relationships (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	type    TEXT NOT NULL,
	to_id   INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	created TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_id, type);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_id, type);

CREATE TABLE IF NOT EXISTS index_catalog (
	name       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	label      TEXT NOT NULL,
	properties TEXT NOT NULL,
	dimensions INTEGER NOT NULL DEFAULT 0,
	similarity TEXT NOT NULL DEFAULT '',
	entries    INTEGER NOT NULL DEFAULT 0,
	created    TEXT NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

// ExecuteRead runs fn in a single transaction. The transaction is rolled
// back afterwards; reads never commit.
//
// The driver ignores ReadOnly, and with _txlock=immediate a read transaction
// holds the write reservation too: reads serialize with writers, and a
// writer waits up to the busy timeout for an open read to finish.
func (g *GraphStore) ExecuteRead(ctx context.Context, fn func(ctx context.Context, tx store.ReadTx) error) error {
	tx, err := g.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return wrapErr(err, "beginning read transaction")
	}
	defer func() { _ = tx.Rollback() }()

	return fn(ctx, &txn{tx: tx, catalog: g.catalog})
}

// ExecuteWrite runs fn in a single transaction and commits only if fn
// succeeds. Errors from fn are returned unchanged.
func (g *GraphStore) ExecuteWrite(ctx context.Context, fn func(ctx context.Context, tx store.WriteTx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err, "beginning write transaction")
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			g.logger.ErrorContext(ctx, "write transaction rollback failed", "error", rbErr)
		}
	}()

	if err := fn(ctx, &txn{tx: tx, catalog: g.catalog}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr(err, "committing write transaction")
	}
	return nil
}

// Indexes returns the index catalog of this database.
func (g *GraphStore) Indexes() store.IndexCatalog {
	return g.catalog
}

// Ping verifies the database is reachable.
func (g *GraphStore) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return graphidxerr.Errorf(graphidxerr.CodeStoreUnavailable, "pinging sqlite db: %w", err)
	}
	return nil
}

// VecVersion reports the version of the loaded sqlite-vec extension.
func (g *GraphStore) VecVersion(ctx context.Context) (string, error) {
	var v string
	if err := g.db.QueryRowContext(ctx, `SELECT vec_version()`).Scan(&v); err != nil {
		return "", wrapErr(err, "querying sqlite-vec version")
	}
	return v, nil
}

// CheckFTS5 reports whether the linked SQLite has the FTS5 module that
// fulltext indexes need. A missing module yields CodeStoreModuleMissing.
func (g *GraphStore) CheckFTS5(ctx context.Context) error {
	if err := g.probeModule(ctx, "fts5", "probe"); err != nil {
		if graphidxerr.HasCode(err, graphidxerr.CodeStoreModuleMissing) {
			return graphidxerr.Wrap(err, graphidxerr.CodeStoreModuleMissing,
				"sqlite was built without FTS5 (build with -tags sqlite_fts5)")
		}
		return err
	}
	return nil
}

// probeModule creates a temporary virtual table using module inside a
// transaction that is always rolled back.
func (g *GraphStore) probeModule(ctx context.Context, module, args string) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err, "beginning %s module check", module)
	}
	defer func() { _ = tx.Rollback() }()

	ddl := `CREATE VIRTUAL TABLE temp.graphidx_module_probe USING ` + module + `(` + args + `)`
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return wrapErr(err, "checking sqlite module %s", module)
	}
	return nil
}

// Close closes the underlying database connection.
func (g *GraphStore) Close() error {
	return g.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// quoteIdent quotes an identifier that has already passed
// store.ValidIdentifier.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
