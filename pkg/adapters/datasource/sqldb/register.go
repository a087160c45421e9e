package sqldb

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

func init() {
	register(datasource.StoreAdapterInfo{
		Type:        "mysql",
		DisplayName: "MySQL",
		Description: "MySQL 8+, MariaDB 10.5+",
	}, func(config.DatabaseConfig) Dialect { return MySQL{} })

	register(datasource.StoreAdapterInfo{
		Type:        "sqlite",
		DisplayName: "SQLite",
		Description: "SQLite 3 database file or :memory:",
	}, func(config.DatabaseConfig) Dialect { return SQLite{} })

	register(datasource.StoreAdapterInfo{
		Type:        "sqlserver",
		DisplayName: "Microsoft SQL Server",
		Description: "SQL Server 2016+, Azure SQL (SQL authentication)",
	}, func(cfg config.DatabaseConfig) Dialect { return SQLServer{Schema: cfg.Schema} })
}

func register(info datasource.StoreAdapterInfo, dialect func(config.DatabaseConfig) Dialect) {
	datasource.Register(datasource.StoreAdapterRegistration{
		Info: info,
		Factory: func(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (datasource.Store, error) {
			return Open(ctx, dialect(cfg), cfg, logger)
		},
	})
}
