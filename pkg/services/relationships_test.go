package services

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

func TestDetectForeignKeys_SkipsEmptyParentTables(t *testing.T) {
	store := setupShopStore(t)
	resolver := NewRelationshipResolver(store, nil, zap.NewNop())

	fks, err := resolver.DetectForeignKeys(context.Background(), productModel())
	require.NoError(t, err)
	assert.Empty(t, fks, "no parent table has rows yet")

	seedCategories(t, store)

	fks, err = resolver.DetectForeignKeys(context.Background(), productModel())
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "categories", fks["category_id"].Table)
	assert.NotContains(t, fks, "supplier_id", "suppliers is still empty")
}

func TestDetectForeignKeys_OnlyBelongsTo(t *testing.T) {
	store := setupShopStore(t)
	seedCategories(t, store)
	resolver := NewRelationshipResolver(store, nil, zap.NewNop())

	fks, err := resolver.DetectForeignKeys(context.Background(), productModel())
	require.NoError(t, err)
	assert.NotContains(t, fks, "product_id")
}

func TestDetectForeignKeys_MissingReferencedTable(t *testing.T) {
	store := setupShopStore(t)
	resolver := NewRelationshipResolver(store, nil, zap.NewNop())

	model := tagModel()
	model.Associations = []models.Association{
		{Name: "owner", Macro: models.MacroBelongsTo, Table: "owners", ForeignKey: "owner_id"},
	}

	_, err := resolver.DetectForeignKeys(context.Background(), model)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owners")
}

func TestLoadRelationData(t *testing.T) {
	store := setupShopStore(t)
	seedCategories(t, store)
	resolver := NewRelationshipResolver(store, nil, zap.NewNop())

	fks := map[string]models.Association{
		"category_id": {Name: "category", Macro: models.MacroBelongsTo, Table: "categories", ForeignKey: "category_id"},
	}

	data, err := resolver.LoadRelationData(context.Background(), fks)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{int64(1), int64(2), int64(3)}, data["category_id"])
}

func TestAssignForeignKeys_DrawsFromSample(t *testing.T) {
	resolver := NewRelationshipResolver(nil, rand.New(rand.NewPCG(1, 2)), zap.NewNop())

	fks := map[string]models.Association{
		"category_id": {Name: "category", Macro: models.MacroBelongsTo, Table: "categories", ForeignKey: "category_id"},
		"supplier_id": {Name: "supplier", Macro: models.MacroBelongsTo, Table: "suppliers", ForeignKey: "supplier_id"},
	}
	sample := []any{int64(4), int64(8), int64(15)}
	data := map[string][]any{
		"category_id": sample,
		"supplier_id": nil,
	}

	records := productRecords(50)
	resolver.AssignForeignKeys(records, fks, data)

	seen := make(map[any]bool)
	for _, r := range records {
		require.Contains(t, r, "category_id")
		assert.Contains(t, sample, r["category_id"])
		assert.NotContains(t, r, "supplier_id", "empty samples leave the column unset")
		seen[r["category_id"]] = true
	}
	assert.Greater(t, len(seen), 1, "values should vary across records")
}

func TestAssignForeignKeys_OverwritesGeneratedValue(t *testing.T) {
	resolver := NewRelationshipResolver(nil, rand.New(rand.NewPCG(3, 4)), zap.NewNop())

	fks := map[string]models.Association{
		"category_id": {Name: "category", Macro: models.MacroBelongsTo, Table: "categories", ForeignKey: "category_id"},
	}
	records := []models.Record{{"name": "Lamp", "category_id": int64(999)}}

	resolver.AssignForeignKeys(records, fks, map[string][]any{"category_id": {int64(7)}})

	assert.Equal(t, int64(7), records[0]["category_id"])
}

func TestAssignForeignKeys_EmptySampleDropsGeneratedValue(t *testing.T) {
	resolver := NewRelationshipResolver(nil, rand.New(rand.NewPCG(5, 6)), zap.NewNop())

	fks := map[string]models.Association{
		"supplier_id": {Name: "supplier", Macro: models.MacroBelongsTo, Table: "suppliers", ForeignKey: "supplier_id"},
	}
	records := []models.Record{{"name": "Lamp", "supplier_id": int64(999)}}

	resolver.AssignForeignKeys(records, fks, map[string][]any{"supplier_id": {}})

	assert.NotContains(t, records[0], "supplier_id")
	assert.Equal(t, "Lamp", records[0]["name"])
}
