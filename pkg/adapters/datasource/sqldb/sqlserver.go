package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// SQLServer is the dialect for go-mssqldb with SQL authentication. Tables
// without a schema prefix resolve against Schema ("dbo" when empty).
type SQLServer struct {
	Schema string
}

func (SQLServer) Name() string       { return "sqlserver" }
func (SQLServer) DriverName() string { return "sqlserver" }

func (SQLServer) DSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("host is required")
	}
	if cfg.Database == "" {
		return "", errors.New("database is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	query := url.Values{}
	query.Add("database", cfg.Database)
	switch cfg.SSLMode {
	case "", "disable":
		query.Add("encrypt", "disable")
	case "require":
		query.Add("encrypt", "true")
		query.Add("TrustServerCertificate", "true")
	default:
		query.Add("encrypt", "true")
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.NetworkHost(),
		port,
		query.Encode(),
	), nil
}

func (SQLServer) Placeholder() sq.PlaceholderFormat { return sq.AtP }

// QuoteIdentifier follows QUOTENAME: brackets with ] doubled.
func (SQLServer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d SQLServer) QualifiedTable(table string) string {
	return d.QuoteIdentifier(d.schema()) + "." + d.QuoteIdentifier(table)
}

// Limit uses TOP since SQL Server has no LIMIT clause.
func (SQLServer) Limit(b sq.SelectBuilder, n uint64) sq.SelectBuilder {
	return b.Options(fmt.Sprintf("TOP (%d)", n))
}

// MaxParams stays under the 2100 parameter cap of an RPC call.
func (SQLServer) MaxParams() int { return 2000 }

func (SQLServer) MaxOpenConns() int { return 0 }

func (SQLServer) Capabilities() datasource.Capabilities {
	return datasource.Capabilities{Indexes: true, ForeignKeys: true}
}

func (d SQLServer) schema() string {
	if d.Schema == "" {
		return "dbo"
	}
	return d.Schema
}

func (d SQLServer) Columns(ctx context.Context, q Querier, table string) ([]datasource.ColumnMetadata, error) {
	rows, err := q.QueryContext(ctx, `
	SELECT
	    c.name AS column_name,
	    tp.name AS data_type,
	    CASE WHEN c.is_nullable = 1 THEN 1 ELSE 0 END AS is_nullable,
	    CASE WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key,
	    c.column_id AS ordinal_position,
	    dc.definition AS column_default,
	    CASE WHEN tp.name IN ('nchar', 'nvarchar') AND c.max_length > 0 THEN c.max_length / 2
	         WHEN tp.name IN ('char', 'varchar') AND c.max_length > 0 THEN c.max_length
	         ELSE NULL END AS max_length,
	    CASE WHEN tp.name IN ('decimal', 'numeric') THEN c.precision ELSE NULL END AS numeric_precision,
	    CASE WHEN tp.name IN ('decimal', 'numeric') THEN c.scale ELSE NULL END AS numeric_scale
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN sys.default_constraints dc ON dc.object_id = c.default_object_id
	LEFT JOIN (
	    SELECT ic.object_id, ic.column_id
	    FROM sys.index_columns ic
	    INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	    WHERE i.is_primary_key = 1
	) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id`,
		sql.Named("schema", d.schema()),
		sql.Named("table", table),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var c datasource.ColumnMetadata
		var isNullable, isPrimary int
		var dflt sql.NullString
		var maxLen, precision, scale sql.NullInt64
		if err := rows.Scan(&c.ColumnName, &c.DataType, &isNullable, &isPrimary,
			&c.OrdinalPosition, &dflt, &maxLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		c.IsNullable = isNullable == 1
		c.IsPrimaryKey = isPrimary == 1
		c.DefaultValue = nullableString(dflt)
		c.MaxLength = nullableInt(maxLen)
		c.Precision = nullableInt(precision)
		c.Scale = nullableInt(scale)
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

func (d SQLServer) Indexes(ctx context.Context, q Querier, table string) ([]datasource.IndexMetadata, error) {
	rows, err := q.QueryContext(ctx, `
	SELECT i.name, i.is_unique, i.is_primary_key, c.name
	FROM sys.indexes i
	INNER JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	INNER JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE i.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	  AND i.name IS NOT NULL
	  AND ic.is_included_column = 0
	ORDER BY i.name, ic.key_ordinal`,
		sql.Named("schema", d.schema()),
		sql.Named("table", table),
	)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []datasource.IndexMetadata
	for rows.Next() {
		var name, column string
		var unique, primary bool
		if err := rows.Scan(&name, &unique, &primary, &column); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		if n := len(indexes); n > 0 && indexes[n-1].Name == name {
			indexes[n-1].Columns = append(indexes[n-1].Columns, column)
			continue
		}
		indexes = append(indexes, datasource.IndexMetadata{
			Name:      name,
			Columns:   []string{column},
			IsUnique:  unique,
			IsPrimary: primary,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}

	return indexes, nil
}

func (d SQLServer) ForeignKeys(ctx context.Context, q Querier, table string) ([]datasource.ForeignKeyMetadata, error) {
	rows, err := q.QueryContext(ctx, `
	SELECT
	    fk.name AS constraint_name,
	    OBJECT_NAME(fk.parent_object_id) AS source_table,
	    COL_NAME(fkc.parent_object_id, fkc.parent_column_id) AS source_column,
	    OBJECT_NAME(fk.referenced_object_id) AS target_table,
	    COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) AS target_column
	FROM sys.foreign_keys fk
	INNER JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
	WHERE fk.parent_object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY fk.name, fkc.constraint_column_id`,
		sql.Named("schema", d.schema()),
		sql.Named("table", table),
	)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var fk datasource.ForeignKeyMetadata
		if err := rows.Scan(&fk.ConstraintName, &fk.SourceTable, &fk.SourceColumn,
			&fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign key rows: %w", err)
	}

	return fks, nil
}
