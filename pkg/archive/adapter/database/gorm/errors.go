package gorm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// ErrorClassifier maps a driver error to a kind. It reports false when it does not
// recognise err, leaving the decision to the generic rules.
type ErrorClassifier func(err error) (exception.Kind, bool)

var (
	classifierRegistry = make(map[string]ErrorClassifier)
	classifierMutex    sync.RWMutex
)

// RegisterErrorClassifier registers the classifier of a database type.
func RegisterErrorClassifier(dbType string, c ErrorClassifier) {
	classifierMutex.Lock()
	defer classifierMutex.Unlock()
	classifierRegistry[dbType] = c
}

func classifierFor(dbType string) ErrorClassifier {
	classifierMutex.RLock()
	defer classifierMutex.RUnlock()
	return classifierRegistry[dbType]
}

// ClassifyError maps err, returned by a connection of type dbType, to an exception kind.
// The dialect classifier is consulted first, then every registered classifier (a gorm
// session can wrap any driver), then gorm's translated errors. Errors nobody recognises
// mean the store could not complete the operation and classify as StoreUnavailable.
func ClassifyError(dbType string, err error) exception.Kind {
	if err == nil {
		return exception.KindUnknown
	}
	if kind := exception.KindOf(err); kind != exception.KindUnknown {
		return kind
	}
	if c := classifierFor(dbType); c != nil {
		if kind, ok := c(err); ok {
			return kind
		}
	}

	classifierMutex.RLock()
	others := make([]ErrorClassifier, 0, len(classifierRegistry))
	for t, c := range classifierRegistry {
		if t != dbType {
			others = append(others, c)
		}
	}
	classifierMutex.RUnlock()
	for _, c := range others {
		if kind, ok := c(err); ok {
			return kind
		}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return exception.KindDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return exception.KindReferentialViolation
	case errors.Is(err, gorm.ErrRecordNotFound):
		return exception.KindNotFound
	case errors.Is(err, gorm.ErrMissingWhereClause), errors.Is(err, gorm.ErrInvalidData):
		return exception.KindInvalidArgument
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, sql.ErrTxDone),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return exception.KindStoreUnavailable
	}
	return exception.KindStoreUnavailable
}
