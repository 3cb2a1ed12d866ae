package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
)

// GormTxAdapter implements tx.Tx over an open gorm transaction.
type GormTxAdapter struct {
	executor
}

// Savepoint implements tx.Tx.
func (t *GormTxAdapter) Savepoint(name string) error {
	return t.db.SavePoint(name).Error
}

// RollbackToSavepoint implements tx.Tx.
func (t *GormTxAdapter) RollbackToSavepoint(name string) error {
	return t.db.RollbackTo(name).Error
}

// ReleaseSavepoint implements tx.Tx. gorm has no release helper, so the statement is issued
// directly; SQLite, PostgreSQL and MySQL share the syntax.
func (t *GormTxAdapter) ReleaseSavepoint(name string) error {
	return t.db.Exec("RELEASE SAVEPOINT " + name).Error
}

// IsTableNotExistError reports whether err means a table is missing.
func (t *GormTxAdapter) IsTableNotExistError(err error) bool {
	return isTableNotExistError(err)
}

// GormTransactionManager implements tx.TransactionManager. The connection is resolved on
// every Begin, so a reconnect by the resolver is picked up by the next transaction.
type GormTransactionManager struct {
	dbResolver database.DBConnectionResolver
	dbName     string
}

// NewGormTransactionManager creates a transaction manager for the named connection.
func NewGormTransactionManager(dbResolver database.DBConnectionResolver, dbName string) *GormTransactionManager {
	return &GormTransactionManager{dbResolver: dbResolver, dbName: dbName}
}

func (m *GormTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	conn, err := m.dbResolver.ResolveDBConnection(ctx, m.dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB connection '%s' for transaction: %w", m.dbName, err)
	}
	adapter, ok := conn.(*GormDBAdapter)
	if !ok {
		return nil, fmt.Errorf("internal error: DBConnection implementation is not *GormDBAdapter")
	}

	var txOpts *sql.TxOptions
	if len(opts) > 0 && opts[0] != nil {
		txOpts = opts[0]
	}

	gormTx := adapter.GetGormDB().WithContext(ctx).Begin(txOpts)
	if gormTx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}
	return &GormTxAdapter{executor: executor{db: gormTx, dbType: adapter.Type()}}, nil
}

func (m *GormTransactionManager) Commit(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Commit().Error
}

// Rollback implements tx.TransactionManager. A transaction that already ended is left alone.
func (m *GormTransactionManager) Rollback(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	err := gormTxAdapter.db.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}
	return err
}

// GormTransactionManagerFactory is the gorm implementation of tx.TransactionManagerFactory.
type GormTransactionManagerFactory struct {
	dbResolver database.DBConnectionResolver
}

// NewGormTransactionManagerFactory creates an instance of GormTransactionManagerFactory.
func NewGormTransactionManagerFactory(dbResolver database.DBConnectionResolver) tx.TransactionManagerFactory {
	return &GormTransactionManagerFactory{dbResolver: dbResolver}
}

// NewTransactionManager creates a transaction manager bound to conn's name.
func (f *GormTransactionManagerFactory) NewTransactionManager(conn coreAdapter.ResourceConnection) tx.TransactionManager {
	return NewGormTransactionManager(f.dbResolver, conn.Name())
}

var _ tx.Tx = (*GormTxAdapter)(nil)
var _ tx.TransactionManager = (*GormTransactionManager)(nil)

// NewIndexTransactionManager creates the transaction manager of the connection named by
// index.db_ref, falling back to "index".
func NewIndexTransactionManager(dbResolver database.DBConnectionResolver, cfg *config.IndexConfig) tx.TransactionManager {
	dbName := "index"
	if cfg != nil && cfg.DBRef != "" {
		dbName = cfg.DBRef
	}
	return NewGormTransactionManager(dbResolver, dbName)
}
