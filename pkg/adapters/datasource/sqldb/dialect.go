// Package sqldb implements datasource.Store over database/sql for MySQL,
// SQLite and SQL Server. Dialect differences (quoting, placeholders, row
// limits, catalog queries) live behind the Dialect interface.
package sqldb

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// Querier is the read side shared by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect captures everything that differs between database/sql backends.
type Dialect interface {
	// Name is the registered store type.
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN builds the driver connection string.
	DSN(cfg config.DatabaseConfig) (string, error)
	// Placeholder is the squirrel placeholder format for bound parameters.
	Placeholder() sq.PlaceholderFormat
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// QualifiedTable returns the quoted table reference used in FROM/INTO.
	QualifiedTable(table string) string
	// Limit restricts a SELECT to n rows.
	Limit(b sq.SelectBuilder, n uint64) sq.SelectBuilder
	// MaxParams is the bound-parameter cap of one statement.
	MaxParams() int
	// MaxOpenConns limits the pool; 0 means unlimited.
	MaxOpenConns() int
	// Capabilities reports which catalog queries are implemented.
	Capabilities() datasource.Capabilities

	Columns(ctx context.Context, q Querier, table string) ([]datasource.ColumnMetadata, error)
	Indexes(ctx context.Context, q Querier, table string) ([]datasource.IndexMetadata, error)
	ForeignKeys(ctx context.Context, q Querier, table string) ([]datasource.ForeignKeyMetadata, error)
}

var typeArgsPattern = regexp.MustCompile(`\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// parseTypeArgs extracts "(n)" or "(p, s)" from a declared type such as
// VARCHAR(100) or DECIMAL(10, 2).
func parseTypeArgs(declared string) (first, second *int) {
	m := typeArgsPattern.FindStringSubmatch(declared)
	if m == nil {
		return nil, nil
	}
	if n, err := strconv.Atoi(m[1]); err == nil {
		first = &n
	}
	if m[2] != "" {
		if n, err := strconv.Atoi(m[2]); err == nil {
			second = &n
		}
	}
	return first, second
}

// parseEnumValues reads the labels of a MySQL column type like
// enum('draft','active'). Doubled quotes inside labels are unescaped.
func parseEnumValues(columnType string) []string {
	lower := strings.ToLower(columnType)
	if !strings.HasPrefix(lower, "enum(") || !strings.HasSuffix(columnType, ")") {
		return nil
	}
	body := columnType[len("enum(") : len(columnType)-1]

	var values []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\'' && inQuote && i+1 < len(body) && body[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case c == '\'':
			if inQuote {
				values = append(values, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			cur.WriteByte(c)
		}
	}
	return values
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
