package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
)

// Store provides PostgreSQL introspection and writes.
type Store struct {
	pool      *pgxpool.Pool
	schema    string
	qb        sq.StatementBuilderType
	ownedPool bool // true if we created the pool
	logger    *zap.Logger
}

// NewStore connects to PostgreSQL and returns a store bound to cfg.Schema.
// If logger is nil, a no-op logger is used.
func NewStore(ctx context.Context, cfg *Config, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	s := NewStoreFromPool(pool, cfg.Schema, logger)
	s.ownedPool = true
	return s, nil
}

// NewStoreFromPool wraps an existing pool. The pool is not closed by Close.
func NewStoreFromPool(pool *pgxpool.Pool, schema string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schema == "" {
		schema = DefaultSchema()
	}
	return &Store{
		pool:   pool,
		schema: schema,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger.Named("postgres"),
	}
}

// Type returns the registered adapter type.
func (s *Store) Type() string {
	return "postgres"
}

// Capabilities reports full introspection support.
func (s *Store) Capabilities() datasource.Capabilities {
	return datasource.Capabilities{Indexes: true, ForeignKeys: true}
}

// QuoteIdentifier quotes a name with PostgreSQL double-quote rules.
func (s *Store) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// qualifiedTableName returns "schema"."table".
func (s *Store) qualifiedTableName(table string) string {
	return pgx.Identifier{s.schema, table}.Sanitize()
}

// HasRows reports whether the table contains at least one row.
func (s *Store) HasRows(ctx context.Context, table string) (bool, error) {
	query, args, err := s.qb.Select("1").From(s.qualifiedTableName(table)).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check rows in %s: %w", table, err)
	}
	return true, nil
}

// SampleValues returns up to limit non-null values of a column.
func (s *Store) SampleValues(ctx context.Context, table, column string, limit int) ([]any, error) {
	col := s.QuoteIdentifier(column)
	query, args, err := s.qb.
		Select(col).
		From(s.qualifiedTableName(table)).
		Where(sq.NotEq{col: nil}).
		Limit(uint64(datasource.ClampSampleLimit(limit))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sample query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		values = append(values, normalizeValue(vals[0]))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	return values, nil
}

// normalizeValue converts pgx driver values into plain Go scalars.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	default:
		return v
	}
}

// WithTransaction runs fn inside a transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx datasource.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&storeTx{tx: tx, store: s})
	})
}

// Close releases the pool if this store created it.
func (s *Store) Close() error {
	if s.ownedPool && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type storeTx struct {
	tx    pgx.Tx
	store *Store
}

// InsertRows writes rows with a single multi-row INSERT.
func (t *storeTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = t.store.QuoteIdentifier(c)
	}

	insert := t.store.qb.Insert(t.store.qualifiedTableName(table)).Columns(quoted...)
	for _, row := range rows {
		insert = insert.Values(row...)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}

	t.store.logger.Debug("Inserted rows",
		zap.String("table", table),
		zap.Int64("rows", tag.RowsAffected()))

	return tag.RowsAffected(), nil
}

// Ensure Store implements datasource.Store at compile time.
var _ datasource.Store = (*Store)(nil)
