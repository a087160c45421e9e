package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/llm"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/schema"
)

// GenerationService produces records with an AI provider and persists them.
type GenerationService interface {
	// Generate asks the provider for count records and saves them.
	Generate(ctx context.Context, model *models.Model, count int) ([]models.Record, error)

	// GenerateWithRelations is Generate with belongs-to columns filled from
	// existing rows of the referenced tables. With no usable association it
	// behaves exactly like Generate.
	GenerateWithRelations(ctx context.Context, model *models.Model, count int) ([]models.Record, error)

	// Run dispatches to the named strategy.
	Run(ctx context.Context, strategy models.GenerationStrategy, model *models.Model, count int) ([]models.Record, error)
}

type generationService struct {
	provider  llm.Provider
	store     datasource.Store
	relations RelationshipResolver
	writer    PersistenceWriter
	cfg       config.GenerationConfig
	logger    *zap.Logger
}

// NewGenerationService wires a service from its collaborators. The resolver
// and writer are built on store.
func NewGenerationService(provider llm.Provider, store datasource.Store, cfg config.GenerationConfig, logger *zap.Logger) GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewGenerationServiceWith(
		provider,
		store,
		NewRelationshipResolver(store, nil, logger),
		NewPersistenceWriter(store, nil, logger),
		cfg,
		logger,
	)
}

// NewGenerationServiceWith creates a service with explicit resolver and
// writer implementations.
func NewGenerationServiceWith(
	provider llm.Provider,
	store datasource.Store,
	relations RelationshipResolver,
	writer PersistenceWriter,
	cfg config.GenerationConfig,
	logger *zap.Logger,
) GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generationService{
		provider:  provider,
		store:     store,
		relations: relations,
		writer:    writer,
		cfg:       cfg,
		logger:    logger.Named("generation"),
	}
}

func (s *generationService) Run(ctx context.Context, strategy models.GenerationStrategy, model *models.Model, count int) ([]models.Record, error) {
	switch strategy {
	case models.StrategySimple:
		return s.Generate(ctx, model, count)
	case models.StrategyRelations:
		return s.GenerateWithRelations(ctx, model, count)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedStrategy, strategy)
	}
}

func (s *generationService) Generate(ctx context.Context, model *models.Model, count int) ([]models.Record, error) {
	if err := checkRequest(model, count); err != nil {
		return nil, err
	}

	req := models.NewGenerationRequest(model.TableName, count, models.StrategySimple)
	req.Fields = s.fields(model)
	ctx = llm.WithRequestID(ctx, req.ID)

	records, err := s.provider.GenerateFakeData(ctx, model.TableName, req.Fields, count)
	if err != nil {
		return nil, err
	}

	return s.save(ctx, req, model, records)
}

func (s *generationService) GenerateWithRelations(ctx context.Context, model *models.Model, count int) ([]models.Record, error) {
	if err := checkRequest(model, count); err != nil {
		return nil, err
	}

	fks, err := s.relations.DetectForeignKeys(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("detect foreign keys for %s: %w", model.TableName, err)
	}
	if len(fks) == 0 {
		s.logger.Debug("No populated associations, using simple generation",
			zap.String("table", model.TableName))
		return s.Generate(ctx, model, count)
	}

	req := models.NewGenerationRequest(model.TableName, count, models.StrategyRelations)
	for _, column := range models.SortedKeys(fks) {
		req.Associations = append(req.Associations, fks[column])
	}
	for _, field := range s.fields(model) {
		if _, isFK := fks[field.Name]; !isFK {
			req.Fields = append(req.Fields, field)
		}
	}
	ctx = llm.WithRequestID(ctx, req.ID)

	data, err := s.relations.LoadRelationData(ctx, fks)
	if err != nil {
		return nil, fmt.Errorf("load relation data for %s: %w", model.TableName, err)
	}

	records, err := s.provider.GenerateFakeData(ctx, model.TableName, req.Fields, count)
	if err != nil {
		return nil, err
	}

	s.relations.AssignForeignKeys(records, fks, data)

	return s.save(ctx, req, model, records)
}

// fields returns the prompt fields for model. Constraint metadata is only
// extracted when validations are enabled.
func (s *generationService) fields(model *models.Model) []models.FieldConstraint {
	analyzer := schema.NewAnalyzer(model, s.store, schema.Options{IncludeTimestamps: s.cfg.IncludeTimestamps}, s.logger)
	if s.cfg.UseValidations {
		return analyzer.ExtractFields(schema.ModeWithConstraints)
	}
	return analyzer.ExtractFields(schema.ModeBasic)
}

func (s *generationService) save(ctx context.Context, req *models.GenerationRequest, model *models.Model, records []models.Record) ([]models.Record, error) {
	mode := WriteBulk
	if s.cfg.UseValidations {
		mode = WriteValidated
	}

	saved, err := s.writer.Save(ctx, model, records, mode)
	if err != nil {
		return nil, fmt.Errorf("save %s records: %w", model.TableName, err)
	}

	s.logger.Info("Generated records",
		zap.String("request_id", req.ID.String()),
		zap.String("table", req.Table),
		zap.String("strategy", string(req.Strategy)),
		zap.Int("requested", req.Count),
		zap.Int("saved", len(saved)),
		zap.Duration("elapsed", time.Since(req.StartedAt)))

	return saved, nil
}

func checkRequest(model *models.Model, count int) error {
	if model == nil || model.TableName == "" {
		return errors.New("generation requires a model")
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}
	return nil
}
