package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// ClassifyError maps go-sqlite3 result codes to exception kinds.
func ClassifyError(err error) (exception.Kind, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		var ptr *sqlite3.Error
		if !errors.As(err, &ptr) || ptr == nil {
			return exception.KindUnknown, false
		}
		sqliteErr = *ptr
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return exception.KindDuplicateKey, true
	case sqlite3.ErrConstraintForeignKey:
		return exception.KindReferentialViolation, true
	case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		return exception.KindInvalidArgument, true
	}

	switch sqliteErr.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrFull, sqlite3.ErrPerm, sqlite3.ErrCorrupt,
		sqlite3.ErrIoErr, sqlite3.ErrReadonly, sqlite3.ErrBusy, sqlite3.ErrLocked,
		sqlite3.ErrNotADB, sqlite3.ErrAuth:
		return exception.KindStoreUnavailable, true
	}
	return exception.KindUnknown, false
}
