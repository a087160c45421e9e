package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// RelationshipResolver fills foreign-key columns of generated records with
// identifiers that already exist in the referenced tables.
type RelationshipResolver interface {
	// DetectForeignKeys returns the belongs-to associations of model keyed by
	// foreign-key column. Associations whose referenced table is empty are
	// left out.
	DetectForeignKeys(ctx context.Context, model *models.Model) (map[string]models.Association, error)

	// LoadRelationData samples up to datasource.MaxSampleSize referenced
	// identifiers per foreign-key column.
	LoadRelationData(ctx context.Context, fks map[string]models.Association) (map[string][]any, error)

	// AssignForeignKeys sets each foreign-key column of every record to a
	// uniformly chosen sampled identifier. Columns with no sample are left
	// unset.
	AssignForeignKeys(records []models.Record, fks map[string]models.Association, data map[string][]any)
}

type relationshipResolver struct {
	store  datasource.Store
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewRelationshipResolver creates a resolver reading from store. A nil rng
// uses a randomly seeded source.
func NewRelationshipResolver(store datasource.Store, rng *rand.Rand, logger *zap.Logger) RelationshipResolver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &relationshipResolver{
		store:  store,
		rng:    rng,
		logger: logger.Named("relationships"),
	}
}

func (r *relationshipResolver) DetectForeignKeys(ctx context.Context, model *models.Model) (map[string]models.Association, error) {
	fks := make(map[string]models.Association)

	for _, assoc := range model.BelongsTo() {
		if assoc.ForeignKey == "" || assoc.Table == "" {
			continue
		}

		hasRows, err := r.store.HasRows(ctx, assoc.Table)
		if err != nil {
			return nil, fmt.Errorf("check referenced table %s: %w", assoc.Table, err)
		}
		if !hasRows {
			r.logger.Debug("Skipping association with empty parent table",
				zap.String("table", model.TableName),
				zap.String("association", assoc.Name),
				zap.String("referenced_table", assoc.Table))
			continue
		}

		fks[assoc.ForeignKey] = assoc
	}

	return fks, nil
}

func (r *relationshipResolver) LoadRelationData(ctx context.Context, fks map[string]models.Association) (map[string][]any, error) {
	data := make(map[string][]any, len(fks))

	for _, column := range models.SortedKeys(fks) {
		assoc := fks[column]
		values, err := r.store.SampleValues(ctx, assoc.Table, assoc.ReferencedKey(), datasource.MaxSampleSize)
		if err != nil {
			return nil, fmt.Errorf("load %s identifiers for %s: %w", assoc.Table, column, err)
		}
		data[column] = values

		r.logger.Debug("Loaded relation candidates",
			zap.String("column", column),
			zap.String("referenced_table", assoc.Table),
			zap.Int("candidates", len(values)))
	}

	return data, nil
}

func (r *relationshipResolver) AssignForeignKeys(records []models.Record, fks map[string]models.Association, data map[string][]any) {
	columns := models.SortedKeys(fks)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		if record == nil {
			continue
		}
		for _, column := range columns {
			candidates := data[column]
			if len(candidates) == 0 {
				delete(record, column)
				continue
			}
			record[column] = candidates[r.rng.IntN(len(candidates))]
		}
	}
}
