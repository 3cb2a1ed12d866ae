package mysql

import (
	"errors"

	driver "github.com/go-sql-driver/mysql"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// Server error numbers, see the MySQL error reference.
const (
	erDupEntry           = 1062
	erNoReferencedRow    = 1216
	erRowIsReferenced    = 1217
	erRowIsReferenced2   = 1451
	erNoReferencedRow2   = 1452
	erBadNull            = 1048
	erLockWaitTimeout    = 1205
	erLockDeadlock       = 1213
	erConCountError      = 1040
	erServerShutdown     = 1053
	erOptionPreventsStmt = 1290
	erDataTooLong        = 1406
	erWarnDataOutOfRange = 1264
)

// ClassifyError maps go-sql-driver/mysql errors to exception kinds.
func ClassifyError(err error) (exception.Kind, bool) {
	if errors.Is(err, driver.ErrInvalidConn) || errors.Is(err, driver.ErrBusyBuffer) {
		return exception.KindStoreUnavailable, true
	}

	var myErr *driver.MySQLError
	if !errors.As(err, &myErr) {
		return exception.KindUnknown, false
	}
	switch myErr.Number {
	case erDupEntry:
		return exception.KindDuplicateKey, true
	case erNoReferencedRow, erNoReferencedRow2, erRowIsReferenced, erRowIsReferenced2:
		return exception.KindReferentialViolation, true
	case erBadNull, erDataTooLong, erWarnDataOutOfRange:
		return exception.KindInvalidArgument, true
	case erLockWaitTimeout, erLockDeadlock, erConCountError, erServerShutdown, erOptionPreventsStmt:
		return exception.KindStoreUnavailable, true
	}
	return exception.KindUnknown, false
}
