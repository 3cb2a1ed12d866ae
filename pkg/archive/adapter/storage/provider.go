package storage

import (
	"fmt"
	"sync"

	storageConfig "github.com/tigerroll/soundings/pkg/archive/adapter/storage/config"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/configbinder"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// ConnectionFactory opens a store connection from its settings.
type ConnectionFactory func(cfg storageConfig.StorageConfig, name string) (StorageConnection, error)

// LookupStorageConfig decodes the named entry under adapter.storage.
func LookupStorageConfig(cfg *config.Config, name string) (storageConfig.StorageConfig, error) {
	var storageCfg storageConfig.StorageConfig
	found, err := configbinder.BindSection(cfg.AdapterSection("storage"), name, &storageCfg)
	if err != nil {
		return storageCfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	if !found {
		return storageCfg, fmt.Errorf("storage configuration '%s' not found under adapter.storage", name)
	}
	return storageCfg, nil
}

// BaseProvider implements the connection caching shared by the store providers.
type BaseProvider struct {
	cfg          *config.Config
	providerType string
	factory      ConnectionFactory
	connections  map[string]StorageConnection
	mu           sync.RWMutex
}

// NewBaseProvider creates a provider of providerType connections opened by factory.
func NewBaseProvider(cfg *config.Config, providerType string, factory ConnectionFactory) *BaseProvider {
	return &BaseProvider{
		cfg:          cfg,
		providerType: providerType,
		factory:      factory,
		connections:  make(map[string]StorageConnection),
	}
}

// Type returns the store type handled by this provider.
func (p *BaseProvider) Type() string {
	return p.providerType
}

// GetConnection returns the cached connection or opens it.
func (p *BaseProvider) GetConnection(name string) (StorageConnection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring lock
	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}
	return p.open(name)
}

// open must be called with mu held.
func (p *BaseProvider) open(name string) (StorageConnection, error) {
	storageCfg, err := LookupStorageConfig(p.cfg, name)
	if err != nil {
		return nil, err
	}
	if storageCfg.Type != p.providerType {
		return nil, fmt.Errorf("storage config type mismatch for '%s': expected '%s', got '%s'", name, p.providerType, storageCfg.Type)
	}

	conn, err := p.factory(storageCfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage connection '%s': %w", p.providerType, name, err)
	}
	p.connections[name] = conn
	logger.Debugf("Created new %s storage connection '%s'.", p.providerType, name)
	return conn, nil
}

// ForceReconnect closes and re-opens the named connection.
func (p *BaseProvider) ForceReconnect(name string) (StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		if err := conn.Close(); err != nil {
			logger.Warnf("Failed to gracefully close %s storage connection '%s' during force reconnect: %v", p.providerType, name, err)
		}
		delete(p.connections, name)
	}
	logger.Debugf("Forcing reconnect for %s storage connection '%s'.", p.providerType, name)
	return p.open(name)
}

// CloseAll closes all connections managed by this provider.
func (p *BaseProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close %s storage connection '%s': %v", p.providerType, name, err)
			lastErr = err
		}
		delete(p.connections, name)
	}
	return lastErr
}
