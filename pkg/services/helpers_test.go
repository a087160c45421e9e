package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource/sqldb"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

const shopSchema = `
CREATE TABLE categories (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE suppliers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	status TEXT,
	price REAL,
	category_id INTEGER REFERENCES categories(id),
	supplier_id INTEGER REFERENCES suppliers(id),
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL
);
`

func setupShopStore(t *testing.T) *sqldb.Store {
	t.Helper()

	store, err := sqldb.Open(context.Background(), sqldb.SQLite{}, config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.DB().Exec(shopSchema)
	require.NoError(t, err)

	return store
}

func seedCategories(t *testing.T, store *sqldb.Store) {
	t.Helper()
	_, err := store.DB().Exec(`INSERT INTO categories (id, name) VALUES (1, 'Books'), (2, 'Games'), (3, 'Tools')`)
	require.NoError(t, err)
}

func countRows(t *testing.T, store *sqldb.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func productModel() *models.Model {
	return &models.Model{
		TableName:  "products",
		PrimaryKey: "id",
		Columns: []models.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "name", Type: "string"},
			{Name: "status", Type: "string", Nullable: true},
			{Name: "price", Type: "float", Nullable: true},
			{Name: "category_id", Type: "integer", Nullable: true},
			{Name: "supplier_id", Type: "integer", Nullable: true},
			{Name: "created_at", Type: "datetime", Nullable: true},
			{Name: "updated_at", Type: "datetime", Nullable: true},
		},
		Enums: []models.EnumDefinition{
			{Field: "status", Values: []string{"draft", "published"}},
		},
		Validators: []models.Validator{
			{Kind: "presence", Attributes: []string{"name"}},
			{Kind: "numericality", Attributes: []string{"price"}, Options: map[string]any{"greater_than": 0, "allow_nil": true}},
		},
		Associations: []models.Association{
			{Name: "category", Macro: models.MacroBelongsTo, Table: "categories", ForeignKey: "category_id"},
			{Name: "supplier", Macro: models.MacroBelongsTo, Table: "suppliers", ForeignKey: "supplier_id"},
			{Name: "reviews", Macro: models.MacroHasMany, Table: "reviews", ForeignKey: "product_id"},
		},
	}
}

func tagModel() *models.Model {
	return &models.Model{
		TableName: "tags",
		Columns: []models.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "label", Type: "string"},
		},
	}
}

func productRecords(n int) []models.Record {
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.Record{
			"name":   "Product",
			"status": "draft",
			"price":  float64(i + 1),
		}
	}
	return records
}

// recordingStore is a datasource.Store that records inserts without a
// database.
type recordingStore struct {
	inserts []recordedInsert
	fail    error
}

type recordedInsert struct {
	table   string
	columns []string
	rows    [][]any
}

func (s *recordingStore) Type() string { return "recording" }

func (s *recordingStore) Capabilities() datasource.Capabilities { return datasource.Capabilities{} }

func (s *recordingStore) QuoteIdentifier(name string) string { return `"` + name + `"` }

func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) HasRows(context.Context, string) (bool, error) { return true, nil }

func (s *recordingStore) DiscoverColumns(context.Context, string) ([]datasource.ColumnMetadata, error) {
	return nil, nil
}

func (s *recordingStore) DiscoverIndexes(context.Context, string) ([]datasource.IndexMetadata, error) {
	return nil, nil
}

func (s *recordingStore) DiscoverForeignKeys(context.Context, string) ([]datasource.ForeignKeyMetadata, error) {
	return nil, nil
}

func (s *recordingStore) SampleValues(context.Context, string, string, int) ([]any, error) {
	return nil, nil
}

func (s *recordingStore) WithTransaction(ctx context.Context, fn func(tx datasource.Tx) error) error {
	return fn(s)
}

func (s *recordingStore) InsertRows(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if s.fail != nil {
		return 0, s.fail
	}
	s.inserts = append(s.inserts, recordedInsert{table: table, columns: columns, rows: rows})
	return int64(len(rows)), nil
}
