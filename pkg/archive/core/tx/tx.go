// Package tx provides the transaction abstraction used by the archive index.
// Repository code is written once against TxExecutor and runs unchanged inside or
// outside a transaction, on any supported database engine.
package tx

import (
	"context"
	"database/sql"

	"github.com/tigerroll/soundings/pkg/archive/core/adapter"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// Order is one ORDER BY term. Column names are quoted by the executor.
type Order struct {
	Column string
	Desc   bool
}

// Range restricts Column to the half-open interval [From, To).
// A nil bound leaves that side open.
type Range struct {
	Column string
	From   interface{}
	To     interface{}
}

// Query describes a SELECT against the table of the target model.
type Query struct {
	// Where holds equality conditions combined with AND. A slice value becomes IN,
	// a nil value becomes IS NULL.
	Where map[string]interface{}
	// Ranges holds interval conditions combined with AND.
	Ranges []Range
	// OrderBy lists sort terms in priority order.
	OrderBy []Order
	// Limit caps the number of rows; 0 means no limit.
	Limit int
}

// TxExecutor is the set of data operations available both on a plain connection and
// inside a transaction.
type TxExecutor interface {
	// ExecuteUpdate performs "CREATE", "UPDATE" or "DELETE" on tableName.
	// For "UPDATE", model may be a map[string]interface{} of column assignments, in which case
	// every entry is written (including nil).
	// query holds equality conditions for UPDATE and DELETE.
	ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error)

	// ExecuteUpsert inserts model, resolving conflicts on conflictColumns by updating updateColumns.
	// With no updateColumns the conflict is ignored (ON CONFLICT DO NOTHING); with no
	// conflictColumns any unique index counts as a conflict.
	ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error)

	// ExecuteQuery selects rows matching equality conditions into target.
	ExecuteQuery(ctx context.Context, target interface{}, query map[string]interface{}) error

	// ExecuteQueryAdvanced selects with a raw ORDER BY expression and an optional limit.
	ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error

	// Select runs a structured query into target.
	Select(ctx context.Context, target interface{}, q Query) error

	// Count counts rows of model's table matching query.
	Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error)

	// Pluck loads the distinct values of column into target.
	Pluck(ctx context.Context, model interface{}, column string, target interface{}, query map[string]interface{}) error

	// ClassifyError maps a driver error to an exception kind for this engine.
	ClassifyError(err error) exception.Kind
}

// Tx represents an ongoing transaction.
type Tx interface {
	TxExecutor

	// Savepoint creates a named savepoint within the transaction.
	Savepoint(name string) error
	// RollbackToSavepoint undoes everything after the named savepoint.
	RollbackToSavepoint(name string) error
	// ReleaseSavepoint discards the named savepoint, keeping its changes in the transaction.
	ReleaseSavepoint(name string) error
}

// TransactionManager begins, commits and rolls back transactions on one connection.
type TransactionManager interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit commits the transaction.
	Commit(tx Tx) error
	// Rollback rolls back the transaction. Rolling back a finished transaction is a no-op.
	Rollback(tx Tx) error
}

// TransactionManagerFactory creates a TransactionManager bound to a named connection.
type TransactionManagerFactory interface {
	NewTransactionManager(conn adapter.ResourceConnection) TransactionManager
}
