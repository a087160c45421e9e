//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/testhelpers"
)

func setupStoreTest(t *testing.T) *Store {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := FromDatabaseConfig(testDB.DatabaseConfig())
	require.NoError(t, err)

	store, err := NewStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_DiscoverColumns(t *testing.T) {
	store := setupStoreTest(t)

	columns, err := store.DiscoverColumns(context.Background(), "products")
	require.NoError(t, err)
	require.Len(t, columns, 5)

	assert.Equal(t, "id", columns[0].ColumnName)
	assert.True(t, columns[0].IsPrimaryKey)

	assert.Equal(t, "name", columns[1].ColumnName)
	require.NotNil(t, columns[1].MaxLength)
	assert.Equal(t, 120, *columns[1].MaxLength)
	assert.False(t, columns[1].IsNullable)

	assert.Equal(t, "price", columns[2].ColumnName)
	require.NotNil(t, columns[2].Precision)
	assert.Equal(t, 10, *columns[2].Precision)

	assert.Equal(t, "status", columns[3].ColumnName)
	assert.Equal(t, "enum", columns[3].DataType)
	assert.Equal(t, []string{"draft", "active", "archived"}, columns[3].EnumValues)
}

func TestStore_DiscoverColumns_MissingTable(t *testing.T) {
	store := setupStoreTest(t)

	_, err := store.DiscoverColumns(context.Background(), "no_such_table")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStore_DiscoverIndexesAndForeignKeys(t *testing.T) {
	store := setupStoreTest(t)
	ctx := context.Background()

	indexes, err := store.DiscoverIndexes(ctx, "users")
	require.NoError(t, err)

	var uniqueEmail bool
	for _, idx := range indexes {
		if idx.IsUnique && !idx.IsPrimary && len(idx.Columns) == 1 && idx.Columns[0] == "email" {
			uniqueEmail = true
		}
	}
	assert.True(t, uniqueEmail, "expected unique index on users.email, got %+v", indexes)

	fks, err := store.DiscoverForeignKeys(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, fks, 2)

	byColumn := make(map[string]datasource.ForeignKeyMetadata)
	for _, fk := range fks {
		byColumn[fk.SourceColumn] = fk
	}
	assert.Equal(t, "users", byColumn["user_id"].TargetTable)
	assert.Equal(t, "id", byColumn["user_id"].TargetColumn)
	assert.Equal(t, "categories", byColumn["category_id"].TargetTable)
}

func TestStore_HasRowsAndSample(t *testing.T) {
	store := setupStoreTest(t)
	ctx := context.Background()

	hasUsers, err := store.HasRows(ctx, "users")
	require.NoError(t, err)
	assert.True(t, hasUsers)

	hasCategories, err := store.HasRows(ctx, "categories")
	require.NoError(t, err)
	assert.False(t, hasCategories)

	ids, err := store.SampleValues(ctx, "users", "id", 3)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.IsType(t, int64(0), ids[0])
}

func TestStore_InsertRowsRollsBack(t *testing.T) {
	store := setupStoreTest(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(tx datasource.Tx) error {
		n, err := tx.InsertRows(ctx, "categories", []string{"name"}, [][]any{{"Books"}, {"Games"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	hasCategories, err := store.HasRows(ctx, "categories")
	require.NoError(t, err)
	assert.False(t, hasCategories, "rollback should leave categories empty")
}
