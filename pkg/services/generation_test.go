package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/llm"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

func generationConfig(useValidations bool) config.GenerationConfig {
	return config.GenerationConfig{
		DefaultLocale:  "en",
		UseValidations: useValidations,
		PromptStyle:    config.PromptStyleEnhanced,
	}
}

func fieldNames(fields []models.FieldConstraint) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func TestGenerate_PersistsWhatTheProviderReturns(t *testing.T) {
	store := setupShopStore(t)
	provider := llm.NewMockProvider(productRecords(8)...)
	svc := NewGenerationService(provider, store, generationConfig(true), zap.NewNop())

	saved, err := svc.Generate(context.Background(), productModel(), 10)
	require.NoError(t, err)

	assert.Len(t, saved, 8)
	assert.Equal(t, 8, countRows(t, store, "products"), "count is advisory")

	require.Len(t, provider.Calls, 1)
	assert.Equal(t, "products", provider.Calls[0].Table)
	assert.Equal(t, 10, provider.Calls[0].Count)
}

func TestGenerate_FieldModeFollowsValidations(t *testing.T) {
	store := setupShopStore(t)

	provider := llm.NewMockProvider(productRecords(1)...)
	svc := NewGenerationService(provider, store, generationConfig(true), zap.NewNop())
	_, err := svc.Generate(context.Background(), productModel(), 1)
	require.NoError(t, err)

	fields := provider.Calls[0].Fields
	assert.Equal(t, []string{"name", "status", "price"}, fieldNames(fields))
	assert.Equal(t, []string{"draft", "published"}, fields[1].EnumValues)

	provider = llm.NewMockProvider(productRecords(1)...)
	svc = NewGenerationService(provider, store, generationConfig(false), zap.NewNop())
	_, err = svc.Generate(context.Background(), productModel(), 1)
	require.NoError(t, err)

	fields = provider.Calls[0].Fields
	assert.Equal(t, []string{"name", "status", "price", "category_id", "supplier_id"}, fieldNames(fields))
	assert.Empty(t, fields[1].EnumValues)
}

func TestGenerate_UsesValidatedWritesWhenEnabled(t *testing.T) {
	store := setupShopStore(t)
	records := []models.Record{{"name": "Lamp", "status": "archived"}}

	svc := NewGenerationService(llm.NewMockProvider(records...), store, generationConfig(true), zap.NewNop())
	_, err := svc.Generate(context.Background(), productModel(), 1)
	require.ErrorIs(t, err, apperrors.ErrRecordInvalid)
	assert.Equal(t, 0, countRows(t, store, "products"))

	svc = NewGenerationService(llm.NewMockProvider(records...), store, generationConfig(false), zap.NewNop())
	_, err = svc.Generate(context.Background(), productModel(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, store, "products"))
}

func TestGenerate_ProviderErrorIsReturned(t *testing.T) {
	store := setupShopStore(t)
	provider := &llm.MockProvider{
		GenerateFakeDataFunc: func(context.Context, string, []models.FieldConstraint, int) ([]models.Record, error) {
			return nil, llm.NewError(llm.ErrorTypeParse, "mock", "failed to parse response as JSON", errors.New("bad json"))
		},
	}
	svc := NewGenerationService(provider, store, generationConfig(true), zap.NewNop())

	_, err := svc.Generate(context.Background(), productModel(), 3)
	require.Error(t, err)
	assert.True(t, llm.IsErrorType(err, llm.ErrorTypeParse))
	assert.Equal(t, 0, countRows(t, store, "products"))
}

func TestGenerate_RequestIDReachesProvider(t *testing.T) {
	store := setupShopStore(t)

	var sawRequestID bool
	provider := &llm.MockProvider{
		GenerateFakeDataFunc: func(ctx context.Context, _ string, _ []models.FieldConstraint, _ int) ([]models.Record, error) {
			_, sawRequestID = llm.RequestIDFromContext(ctx)
			return productRecords(1), nil
		},
	}
	svc := NewGenerationService(provider, store, generationConfig(true), zap.NewNop())

	_, err := svc.Generate(context.Background(), productModel(), 1)
	require.NoError(t, err)
	assert.True(t, sawRequestID)
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	svc := NewGenerationService(llm.NewMockProvider(), &recordingStore{}, generationConfig(true), zap.NewNop())

	_, err := svc.Generate(context.Background(), productModel(), 0)
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), nil, 1)
	require.Error(t, err)
}

func TestGenerateWithRelations_AssignsSampledForeignKeys(t *testing.T) {
	store := setupShopStore(t)
	seedCategories(t, store)

	records := productRecords(10)
	for _, r := range records {
		r["category_id"] = int64(999)
	}
	provider := llm.NewMockProvider(records...)

	svc := NewGenerationServiceWith(
		provider,
		store,
		NewRelationshipResolver(store, rand.New(rand.NewPCG(7, 11)), zap.NewNop()),
		NewPersistenceWriter(store, nil, zap.NewNop()),
		generationConfig(false),
		zap.NewNop(),
	)

	saved, err := svc.GenerateWithRelations(context.Background(), productModel(), 10)
	require.NoError(t, err)
	require.Len(t, saved, 10)

	for _, r := range saved {
		assert.Contains(t, []any{int64(1), int64(2), int64(3)}, r["category_id"])
	}

	fields := fieldNames(provider.Calls[0].Fields)
	assert.NotContains(t, fields, "category_id", "assigned foreign keys are not asked of the model")
	assert.Contains(t, fields, "supplier_id", "suppliers is empty so the column stays a plain field")

	var orphans int
	require.NoError(t, store.DB().QueryRow(
		"SELECT COUNT(*) FROM products WHERE category_id NOT IN (SELECT id FROM categories)").Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestGenerateWithRelations_NoForeignKeysMatchesGenerate(t *testing.T) {
	simpleStore := setupShopStore(t)
	simpleProvider := llm.NewMockProvider(productRecords(4)...)
	simple := NewGenerationService(simpleProvider, simpleStore, generationConfig(true), zap.NewNop())

	relStore := setupShopStore(t)
	relProvider := llm.NewMockProvider(productRecords(4)...)
	related := NewGenerationService(relProvider, relStore, generationConfig(true), zap.NewNop())

	simpleSaved, err := simple.Generate(context.Background(), productModel(), 4)
	require.NoError(t, err)
	relSaved, err := related.GenerateWithRelations(context.Background(), productModel(), 4)
	require.NoError(t, err)

	assert.Equal(t, simpleProvider.Calls, relProvider.Calls)
	assert.Equal(t, len(simpleSaved), len(relSaved))
	for i := range simpleSaved {
		assert.Equal(t, simpleSaved[i]["name"], relSaved[i]["name"])
		assert.Equal(t, simpleSaved[i]["price"], relSaved[i]["price"])
		assert.NotContains(t, relSaved[i], "category_id")
	}
	assert.Equal(t, countRows(t, simpleStore, "products"), countRows(t, relStore, "products"))
}

func TestGenerateWithRelations_TableWithoutAssociations(t *testing.T) {
	store := setupShopStore(t)
	provider := llm.NewMockProvider(models.Record{"label": "sale"}, models.Record{"label": "new"})
	svc := NewGenerationService(provider, store, generationConfig(true), zap.NewNop())

	saved, err := svc.GenerateWithRelations(context.Background(), tagModel(), 2)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.Equal(t, 2, countRows(t, store, "tags"))
}

func TestRun_DispatchesOnStrategy(t *testing.T) {
	store := setupShopStore(t)
	provider := llm.NewMockProvider(models.Record{"label": "sale"})
	svc := NewGenerationService(provider, store, generationConfig(true), zap.NewNop())

	for _, strategy := range models.ValidStrategies {
		_, err := svc.Run(context.Background(), strategy, tagModel(), 1)
		require.NoError(t, err, "strategy %s", strategy)
	}
	assert.Equal(t, 2, countRows(t, store, "tags"))

	_, err := svc.Run(context.Background(), models.GenerationStrategy("bogus"), tagModel(), 1)
	require.ErrorIs(t, err, apperrors.ErrUnsupportedStrategy)
	assert.Contains(t, err.Error(), `"bogus"`)
}
