package datasource

import "context"

// MaxSampleSize is the hard cap on identifiers sampled from a referenced
// table for foreign-key assignment.
const MaxSampleSize = 1000

// Capabilities describes what a store can introspect. Callers consult it
// instead of probing for methods at runtime.
type Capabilities struct {
	// Indexes is true when DiscoverIndexes returns real data.
	Indexes bool
	// ForeignKeys is true when DiscoverForeignKeys returns real data.
	ForeignKeys bool
}

// Store is a relational database the generator reads schema from and
// writes rows into. Each implementation owns its connection and must be
// closed when done.
type Store interface {
	// Type returns the registered adapter type ("postgres", "sqlite", ...).
	Type() string

	// Capabilities reports which introspection calls are supported.
	Capabilities() Capabilities

	// DiscoverColumns returns the columns of a table in ordinal order.
	// Returns apperrors.ErrNotFound when the table does not exist.
	DiscoverColumns(ctx context.Context, table string) ([]ColumnMetadata, error)

	// DiscoverIndexes returns the indexes defined on a table.
	DiscoverIndexes(ctx context.Context, table string) ([]IndexMetadata, error)

	// DiscoverForeignKeys returns the foreign keys declared on a table.
	DiscoverForeignKeys(ctx context.Context, table string) ([]ForeignKeyMetadata, error)

	// HasRows reports whether the table contains at least one row.
	HasRows(ctx context.Context, table string) (bool, error)

	// SampleValues returns up to limit values of a column. A limit <= 0 or
	// above MaxSampleSize is capped to MaxSampleSize.
	SampleValues(ctx context.Context, table, column string, limit int) ([]any, error)

	// WithTransaction runs fn in a transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(tx Tx) error) error

	// QuoteIdentifier quotes a table or column name for this dialect.
	QuoteIdentifier(name string) string

	// Close releases the database connection.
	Close() error
}

// Tx is the write side of a running transaction.
type Tx interface {
	// InsertRows inserts rows in a single multi-row INSERT. Every row must
	// have one value per column. Returns the number of rows written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// ClampSampleLimit applies the MaxSampleSize cap.
func ClampSampleLimit(limit int) int {
	if limit <= 0 || limit > MaxSampleSize {
		return MaxSampleSize
	}
	return limit
}
