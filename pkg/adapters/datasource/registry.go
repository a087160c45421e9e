package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// StoreAdapterInfo describes a registered adapter.
type StoreAdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mysql", "sqlite", "sqlserver"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string `json:"description"`
}

// StoreFactory opens a store from database configuration.
type StoreFactory func(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error)

// StoreAdapterRegistration contains info + factory for creating stores.
type StoreAdapterRegistration struct {
	Info    StoreAdapterInfo
	Factory StoreFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]StoreAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg StoreAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters sorted by type.
func RegisteredAdapters() []StoreAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]StoreAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the factory for a store type.
// Returns nil if type is not registered.
func GetFactory(storeType string) StoreFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[storeType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(storeType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[storeType]
	return ok
}
