package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// ClassifyError maps PostgreSQL SQLSTATE codes to exception kinds.
func ClassifyError(err error) (exception.Kind, bool) {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return exception.KindStoreUnavailable, true
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return exception.KindUnknown, false
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return exception.KindDuplicateKey, true
	case pgerrcode.ForeignKeyViolation:
		return exception.KindReferentialViolation, true
	case pgerrcode.NotNullViolation, pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
		return exception.KindInvalidArgument, true
	}

	switch {
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsInsufficientResources(pgErr.Code),
		pgerrcode.IsSystemError(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code),
		pgerrcode.IsTransactionRollback(pgErr.Code):
		return exception.KindStoreUnavailable, true
	}
	return exception.KindUnknown, false
}
