package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// SQLite is the dialect for modernc.org/sqlite. Catalog data comes from the
// pragma table-valued functions.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

// DSN returns the database path. Foreign key enforcement is switched on per
// connection through the _pragma parameter.
func (SQLite) DSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.Path == "" {
		return "", errors.New("path is required")
	}
	sep := "?"
	if strings.Contains(cfg.Path, "?") {
		sep = "&"
	}
	return cfg.Path + sep + "_pragma=foreign_keys(1)", nil
}

func (SQLite) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d SQLite) QualifiedTable(table string) string { return d.QuoteIdentifier(table) }

func (SQLite) Limit(b sq.SelectBuilder, n uint64) sq.SelectBuilder { return b.Limit(n) }

func (SQLite) MaxParams() int { return 32766 }

// MaxOpenConns is 1: every connection to ":memory:" is a separate database.
func (SQLite) MaxOpenConns() int { return 1 }

func (SQLite) Capabilities() datasource.Capabilities {
	return datasource.Capabilities{Indexes: true, ForeignKeys: true}
}

func (SQLite) Columns(ctx context.Context, q Querier, table string) ([]datasource.ColumnMetadata, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var cid, notNull, pk int
		var name, declared string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		c := datasource.ColumnMetadata{
			ColumnName:      name,
			DataType:        declared,
			IsNullable:      notNull == 0 && pk == 0,
			IsPrimaryKey:    pk != 0,
			OrdinalPosition: cid + 1,
			DefaultValue:    nullableString(dflt),
		}
		first, second := parseTypeArgs(declared)
		switch datasource.NormalizeType(declared) {
		case "string":
			c.MaxLength = first
		case "decimal", "float":
			c.Precision, c.Scale = first, second
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

func (SQLite) Indexes(ctx context.Context, q Querier, table string) ([]datasource.IndexMetadata, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, "unique", origin FROM pragma_index_list(?) ORDER BY name`, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}

	var indexes []datasource.IndexMetadata
	for rows.Next() {
		var name, origin string
		var unique int
		if err := rows.Scan(&name, &unique, &origin); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indexes = append(indexes, datasource.IndexMetadata{
			Name:      name,
			IsUnique:  unique != 0,
			IsPrimary: origin == "pk",
		})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	// index_info is read after the list is drained; in-memory databases run
	// on a single connection.
	for i := range indexes {
		cols, err := indexColumns(ctx, q, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = cols
	}

	return indexes, nil
}

func indexColumns(ctx context.Context, q Querier, index string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, index)
	if err != nil {
		return nil, fmt.Errorf("query index columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan index column: %w", err)
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index columns: %w", err)
	}

	return cols, nil
}

func (d SQLite) ForeignKeys(ctx context.Context, q Querier, table string) ([]datasource.ForeignKeyMetadata, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}

	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var id int
		var target, from string
		var to sql.NullString
		if err := rows.Scan(&id, &target, &from, &to); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, datasource.ForeignKeyMetadata{
			ConstraintName: fmt.Sprintf("%s_fk_%d", table, id),
			SourceTable:    table,
			SourceColumn:   from,
			TargetTable:    target,
			TargetColumn:   to.String,
		})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	// REFERENCES parent without a column list points at the parent's key
	for i := range fks {
		if fks[i].TargetColumn != "" {
			continue
		}
		cols, err := d.Columns(ctx, q, fks[i].TargetTable)
		if err != nil {
			return nil, err
		}
		fks[i].TargetColumn = "rowid"
		for _, c := range cols {
			if c.IsPrimaryKey {
				fks[i].TargetColumn = c.ColumnName
				break
			}
		}
	}

	return fks, nil
}
