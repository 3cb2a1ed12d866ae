package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	dbadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database"
	coreadapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
)

// MockDBConnectionResolver is a testify mock of database.DBConnectionResolver.
type MockDBConnectionResolver struct {
	mock.Mock
}

func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dbadapter.DBConnection), args.Error(1)
}

func (m *MockDBConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreadapter.ResourceConnection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(coreadapter.ResourceConnection), args.Error(1)
}

// singleConnectionResolver returns the same connection for every name.
type singleConnectionResolver struct {
	conn dbadapter.DBConnection
}

// NewTestSingleConnectionResolver returns a resolver that always yields conn.
func NewTestSingleConnectionResolver(conn dbadapter.DBConnection) dbadapter.DBConnectionResolver {
	return &singleConnectionResolver{conn: conn}
}

func (r *singleConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	return r.conn, nil
}

func (r *singleConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreadapter.ResourceConnection, error) {
	return r.conn, nil
}

var _ dbadapter.DBConnectionResolver = (*MockDBConnectionResolver)(nil)
var _ dbadapter.DBConnectionResolver = (*singleConnectionResolver)(nil)
