//go:build integration

package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestDB_SchemaLoaded(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := context.Background()

	var tableCount int
	err := testDB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public'").
		Scan(&tableCount)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tableCount, 4)

	var users int
	require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&users))
	assert.Equal(t, 5, users)
}
