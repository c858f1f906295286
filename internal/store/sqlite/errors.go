// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// classify maps a driver error onto an error code. Errors that already carry
// a code keep it.
func classify(err error) graphidxerr.Code {
	if code := graphidxerr.CodeOf(err); code != "" {
		return code
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.Code == sqlite3.ErrError && strings.Contains(se.Error(), "no such module") {
			return graphidxerr.CodeStoreModuleMissing
		}
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen,
			sqlite3.ErrIoErr, sqlite3.ErrNotADB, sqlite3.ErrReadonly:
			return graphidxerr.CodeStoreUnavailable
		case sqlite3.ErrConstraint:
			return graphidxerr.CodeStoreConflict
		}
	}

	switch {
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return graphidxerr.CodeStoreUnavailable
	}

	return graphidxerr.CodeStoreDatabaseFailure
}

// isConstraint reports whether err is a SQLite constraint violation.
func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return graphidxerr.Wrapf(err, classify(err), format, args...)
}
