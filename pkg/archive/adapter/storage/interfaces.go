// Package storage defines the payload store abstraction. The archive index keeps file
// metadata; the compressed file bodies live in a store reached through these interfaces.
package storage

import (
	"context"
	"io"

	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
)

// StorageExecutor defines the object operations of a payload store.
type StorageExecutor interface {
	// Upload stores data under objectName, replacing any existing object.
	// An empty bucket selects the configured default.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download opens the object for reading; NotFound if it does not exist.
	// The caller must close the returned reader.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object whose name starts with prefix.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes the object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageConnection is a named, open payload store.
type StorageConnection interface {
	coreAdapter.ResourceConnection // Close(), Type(), Name()
	StorageExecutor
}

// StorageProvider opens and caches connections of one store type.
type StorageProvider interface {
	// GetConnection retrieves a StorageConnection with the specified name.
	GetConnection(name string) (StorageConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the store type handled by this provider (e.g., "local").
	Type() string
	// ForceReconnect closes and re-opens the named connection.
	ForceReconnect(name string) (StorageConnection, error)
}

// StorageConnectionResolver resolves a payload store by connection name.
type StorageConnectionResolver interface {
	coreAdapter.ResourceConnectionResolver

	// ResolveStorageConnection resolves a StorageConnection instance by name.
	ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error)
}

// StorageProviderGroup is the Fx value group collecting every StorageProvider.
const StorageProviderGroup = "storage_providers"
