package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

func init() {
	datasource.Register(datasource.StoreAdapterRegistration{
		Info: datasource.StoreAdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "PostgreSQL 12+, Aurora PostgreSQL, Supabase",
		},
		Factory: func(ctx context.Context, db config.DatabaseConfig, logger *zap.Logger) (datasource.Store, error) {
			cfg, err := FromDatabaseConfig(db)
			if err != nil {
				return nil, err
			}
			return NewStore(ctx, cfg, logger)
		},
	})
}
