package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// Open creates a store for cfg.Type using the global registry. Adapters
// register themselves from init(), so callers blank-import the adapter
// packages they want compiled in.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := GetFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedStore, cfg.Type)
	}

	store, err := factory(ctx, cfg, logger.Named("datasource"))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Type, err)
	}
	return store, nil
}
