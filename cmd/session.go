package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/logging"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/schema"
)

// session holds what every command needs: configuration, a logger, an open
// store and the optional model definitions.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	store  datasource.Store
	defs   schema.Definitions
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, err
	}
	if modelsPath != "" {
		cfg.Generation.ModelsFile = modelsPath
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger, err := logging.NewLogger(level, cfg.Env)
	if err != nil {
		return nil, err
	}

	defs, err := schema.LoadDefinitions(cfg.Generation.ModelsFile)
	if err != nil {
		return nil, err
	}

	store, err := datasource.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Session opened",
		zap.String("version", cfg.Version),
		zap.String("provider", string(cfg.AI.Provider)),
		zap.String("model", cfg.AI.Model),
		zap.String("database_type", cfg.Database.Type))

	return &session{cfg: cfg, logger: logger, store: store, defs: defs}, nil
}

func (s *session) model(ctx context.Context, table string) (*models.Model, error) {
	model, err := schema.LoadModel(ctx, s.store, table, s.defs.Get(table), s.logger)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", table, err)
	}
	return model, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("Failed to close store", zap.Error(err))
	}
	_ = s.logger.Sync()
}
