// Package adapter defines the resource abstractions shared by database and payload storage adapters.
package adapter

import (
	"context"
)

// ResourceConnection represents a connection to an external resource (database, object store).
type ResourceConnection interface {
	// Close closes the resource connection.
	Close() error
	// Type returns the type of the resource (e.g., "sqlite", "gcs").
	Type() string
	// Name returns the configured connection name (e.g., "index", "payloads").
	Name() string
}

// ResourceProvider hands out named connections of a single resource type.
type ResourceProvider interface {
	// GetConnection retrieves a resource connection with the specified name.
	GetConnection(name string) (ResourceConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the type of resource handled by this provider.
	Type() string
}

// ResourceConnectionResolver resolves a connection by its configured name.
type ResourceConnectionResolver interface {
	// ResolveConnection returns a live connection, re-establishing it if necessary.
	ResolveConnection(ctx context.Context, name string) (ResourceConnection, error)
}
