// Package sql implements the archive index on a relational store through the
// database adapters. Every write runs in a transaction; reads join the transaction
// carried by the context when there is one.
package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// DefaultDBName is the connection used when the configuration leaves index.db_ref unset.
const DefaultDBName = "index"

// SQLArchiveIndex implements repository.ArchiveIndex.
type SQLArchiveIndex struct {
	dbResolver coreAdapter.ResourceConnectionResolver // Expected to resolve to a database.DBConnection.
	// TxManager is the transaction manager of the index database.
	TxManager tx.TransactionManager
	// dbName is the name of the database connection holding the index (e.g., "index").
	dbName string
}

// NewSQLArchiveIndex creates a new instance of SQLArchiveIndex.
func NewSQLArchiveIndex(
	dbResolver coreAdapter.ResourceConnectionResolver,
	txManager tx.TransactionManager,
	dbName string,
) *SQLArchiveIndex {
	return &SQLArchiveIndex{
		dbResolver: dbResolver,
		TxManager:  txManager,
		dbName:     dbName,
	}
}

// getDBConnection resolves the index connection.
func (r *SQLArchiveIndex) getDBConnection(ctx context.Context) (database.DBConnection, error) {
	const op = "SQLArchiveIndex.getDBConnection"
	connAsResource, err := r.dbResolver.ResolveConnection(ctx, r.dbName)
	if err != nil {
		return nil, exception.Newf(op, exception.KindStoreUnavailable, err, "failed to resolve DB connection '%s'", r.dbName)
	}
	conn, ok := connAsResource.(database.DBConnection)
	if !ok {
		return nil, exception.Newf(op, exception.KindStoreUnavailable, nil, "resolved connection '%s' is not a database.DBConnection", r.dbName)
	}
	return conn, nil
}

// getTxExecutor returns the transaction carried by ctx, or the plain connection.
func (r *SQLArchiveIndex) getTxExecutor(ctx context.Context) (tx.TxExecutor, error) {
	if t, ok := tx.FromContext(ctx); ok {
		return t, nil
	}
	return r.getDBConnection(ctx)
}

// runInTx runs fn atomically. Inside an outer transaction fn runs under a savepoint, so a
// failed statement is undone without aborting the caller's transaction. The savepoint is
// released either way, so a long outer transaction does not accumulate them.
func (r *SQLArchiveIndex) runInTx(ctx context.Context, op string, fn func(ctx context.Context, exec tx.TxExecutor) error) error {
	if t, ok := tx.FromContext(ctx); ok {
		sp := "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		if err := t.Savepoint(sp); err != nil {
			return wrapError(op, t, err, "failed to create savepoint")
		}
		if err := fn(ctx, t); err != nil {
			if rbErr := t.RollbackToSavepoint(sp); rbErr == nil {
				_ = t.ReleaseSavepoint(sp)
			}
			return err
		}
		if err := t.ReleaseSavepoint(sp); err != nil {
			return wrapError(op, t, err, "failed to release savepoint")
		}
		return nil
	}

	t, err := r.TxManager.Begin(ctx)
	if err != nil {
		conn, connErr := r.getDBConnection(ctx)
		if connErr != nil {
			return connErr
		}
		return wrapError(op, conn, err, "failed to begin transaction")
	}
	if err := fn(tx.WithTx(ctx, t), t); err != nil {
		_ = r.TxManager.Rollback(t)
		return err
	}
	if err := r.TxManager.Commit(t); err != nil {
		_ = r.TxManager.Rollback(t)
		return wrapError(op, t, err, "failed to commit transaction")
	}
	return nil
}

// wrapError classifies a driver error for the engine behind exec. Errors that already
// carry a kind are returned unchanged.
func wrapError(op string, exec tx.TxExecutor, err error, format string, a ...interface{}) error {
	if exception.KindOf(err) != exception.KindUnknown {
		return err
	}
	return exception.New(op, exec.ClassifyError(err), fmt.Sprintf(format, a...), err)
}

func notFound(op, format string, a ...interface{}) error {
	return exception.Newf(op, exception.KindNotFound, nil, format, a...)
}

// Close implements io.Closer. The connection belongs to its DBProvider and is closed there.
func (r *SQLArchiveIndex) Close() error {
	return nil
}

var _ repository.ArchiveIndex = (*SQLArchiveIndex)(nil)

// ArchiveIndexParams defines the dependencies of NewArchiveIndex.
type ArchiveIndexParams struct {
	fx.In
	DBResolver coreAdapter.ResourceConnectionResolver
	// IndexTxManager is the transaction manager of the index database.
	IndexTxManager tx.TransactionManager `name:"index"`
	Cfg            *config.IndexConfig
}

// NewArchiveIndex creates the archive index. It is intended to be used as an Fx provider.
func NewArchiveIndex(p ArchiveIndexParams) *SQLArchiveIndex {
	dbName := DefaultDBName
	if p.Cfg != nil && p.Cfg.DBRef != "" {
		dbName = p.Cfg.DBRef
	}
	return NewSQLArchiveIndex(p.DBResolver, p.IndexTxManager, dbName)
}
