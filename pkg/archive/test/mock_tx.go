// Package test holds mocks and fixtures shared by the archive's package tests.
package test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// MockTx is a testify mock of tx.Tx.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (int64, error) {
	args := m.Called(ctx, model, operation, tableName, query)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	args := m.Called(ctx, model, tableName, conflictColumns, updateColumns)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) ExecuteQuery(ctx context.Context, target interface{}, query map[string]interface{}) error {
	args := m.Called(ctx, target, query)
	return args.Error(0)
}

func (m *MockTx) ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error {
	args := m.Called(ctx, target, query, orderBy, limit)
	return args.Error(0)
}

func (m *MockTx) Select(ctx context.Context, target interface{}, q tx.Query) error {
	args := m.Called(ctx, target, q)
	return args.Error(0)
}

func (m *MockTx) Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error) {
	args := m.Called(ctx, model, query)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) Pluck(ctx context.Context, model interface{}, column string, target interface{}, query map[string]interface{}) error {
	args := m.Called(ctx, model, column, target, query)
	return args.Error(0)
}

// ClassifyError returns the configured kind, or KindStoreUnavailable when no expectation is set.
func (m *MockTx) ClassifyError(err error) exception.Kind {
	for _, call := range m.ExpectedCalls {
		if call.Method == "ClassifyError" {
			args := m.Called(err)
			return args.Get(0).(exception.Kind)
		}
	}
	return exception.KindStoreUnavailable
}

func (m *MockTx) Savepoint(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockTx) RollbackToSavepoint(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockTx) ReleaseSavepoint(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

// MockTxManager is a testify mock of tx.TransactionManager.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tx.Tx), args.Error(1)
}

func (m *MockTxManager) Commit(t tx.Tx) error {
	args := m.Called(t)
	return args.Error(0)
}

func (m *MockTxManager) Rollback(t tx.Tx) error {
	args := m.Called(t)
	return args.Error(0)
}

var _ tx.Tx = (*MockTx)(nil)
var _ tx.TransactionManager = (*MockTxManager)(nil)
