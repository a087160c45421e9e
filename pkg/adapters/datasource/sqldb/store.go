package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// Store is a datasource.Store backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	qb      sq.StatementBuilderType
	ownedDB bool // true if we opened the handle
	logger  *zap.Logger
}

// Open connects with the dialect's driver and verifies the connection.
func Open(ctx context.Context, dialect Dialect, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	dsn, err := dialect.DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	if n := dialect.MaxOpenConns(); n > 0 {
		db.SetMaxOpenConns(n)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	s := NewStoreFromDB(db, dialect, logger)
	s.ownedDB = true
	return s, nil
}

// NewStoreFromDB wraps an existing handle. The handle is not closed by Close.
func NewStoreFromDB(db *sql.DB, dialect Dialect, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		qb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder()),
		logger:  logger.Named(dialect.Name()),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Type returns the registered adapter type.
func (s *Store) Type() string {
	return s.dialect.Name()
}

// Capabilities reports what the dialect can introspect.
func (s *Store) Capabilities() datasource.Capabilities {
	return s.dialect.Capabilities()
}

// QuoteIdentifier quotes a name for the dialect.
func (s *Store) QuoteIdentifier(name string) string {
	return s.dialect.QuoteIdentifier(name)
}

// DiscoverColumns returns the columns of a table in ordinal order.
func (s *Store) DiscoverColumns(ctx context.Context, table string) ([]datasource.ColumnMetadata, error) {
	columns, err := s.dialect.Columns(ctx, s.db, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, apperrors.ErrNotFound)
	}
	return columns, nil
}

// DiscoverIndexes returns the indexes defined on a table.
func (s *Store) DiscoverIndexes(ctx context.Context, table string) ([]datasource.IndexMetadata, error) {
	return s.dialect.Indexes(ctx, s.db, table)
}

// DiscoverForeignKeys returns the foreign keys declared on a table.
func (s *Store) DiscoverForeignKeys(ctx context.Context, table string) ([]datasource.ForeignKeyMetadata, error) {
	return s.dialect.ForeignKeys(ctx, s.db, table)
}

// HasRows reports whether the table contains at least one row.
func (s *Store) HasRows(ctx context.Context, table string) (bool, error) {
	query, args, err := s.dialect.Limit(s.qb.Select("1").From(s.dialect.QualifiedTable(table)), 1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
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
	builder := s.qb.Select(col).From(s.dialect.QualifiedTable(table)).Where(sq.NotEq{col: nil})
	query, args, err := s.dialect.Limit(builder, uint64(datasource.ClampSampleLimit(limit))).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sample query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		values = append(values, normalizeValue(v))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	return values, nil
}

// normalizeValue turns driver byte slices (MySQL text protocol) into strings.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// WithTransaction runs fn inside a transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx datasource.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(&storeTx{tx: tx, store: s}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close releases the handle if this store opened it.
func (s *Store) Close() error {
	if s.ownedDB && s.db != nil {
		return s.db.Close()
	}
	return nil
}

type storeTx struct {
	tx    *sql.Tx
	store *Store
}

// InsertRows writes rows with multi-row INSERTs, splitting when the
// dialect's bound-parameter cap would be exceeded.
func (t *storeTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("insert into %s: %w", table, apperrors.ErrNoColumns)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = t.store.QuoteIdentifier(c)
	}

	perStatement := t.store.dialect.MaxParams() / len(columns)
	if perStatement < 1 {
		perStatement = 1
	}

	var total int64
	for start := 0; start < len(rows); start += perStatement {
		end := min(start+perStatement, len(rows))

		insert := t.store.qb.Insert(t.store.dialect.QualifiedTable(table)).Columns(quoted...)
		for _, row := range rows[start:end] {
			insert = insert.Values(row...)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return total, fmt.Errorf("build insert: %w", err)
		}

		res, err := t.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("insert into %s: %w", table, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			n = int64(end - start)
		}
		total += n
	}

	t.store.logger.Debug("Inserted rows",
		zap.String("table", table),
		zap.Int64("rows", total))

	return total, nil
}

// Ensure Store implements datasource.Store at compile time.
var _ datasource.Store = (*Store)(nil)
