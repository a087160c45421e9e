package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// MySQL is the dialect for go-sql-driver/mysql. Catalog data comes from
// information_schema scoped to the connection's current database.
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) DSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("host is required")
	}
	if cfg.Database == "" {
		return "", errors.New("database is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.NetworkHost(), strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.SSLMode != "" && cfg.SSLMode != "disable" {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN(), nil
}

func (MySQL) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d MySQL) QualifiedTable(table string) string { return d.QuoteIdentifier(table) }

func (MySQL) Limit(b sq.SelectBuilder, n uint64) sq.SelectBuilder { return b.Limit(n) }

func (MySQL) MaxParams() int { return 65535 }

func (MySQL) MaxOpenConns() int { return 0 }

func (MySQL) Capabilities() datasource.Capabilities {
	return datasource.Capabilities{Indexes: true, ForeignKeys: true}
}

func (MySQL) Columns(ctx context.Context, q Querier, table string) ([]datasource.ColumnMetadata, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable = 'YES', column_key = 'PRI',
		       ordinal_position, column_default, character_maximum_length,
		       numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var c datasource.ColumnMetadata
		var dflt sql.NullString
		var maxLen, precision, scale sql.NullInt64
		if err := rows.Scan(&c.ColumnName, &c.DataType, &c.IsNullable, &c.IsPrimaryKey,
			&c.OrdinalPosition, &dflt, &maxLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.DefaultValue = nullableString(dflt)
		c.MaxLength = nullableInt(maxLen)
		c.Precision = nullableInt(precision)
		c.Scale = nullableInt(scale)
		c.EnumValues = parseEnumValues(c.DataType)
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

func (MySQL) Indexes(ctx context.Context, q Querier, table string) ([]datasource.IndexMetadata, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT index_name, non_unique = 0, column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name, seq_in_index`, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []datasource.IndexMetadata
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &unique, &column); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		if n := len(indexes); n > 0 && indexes[n-1].Name == name {
			indexes[n-1].Columns = append(indexes[n-1].Columns, column)
			continue
		}
		indexes = append(indexes, datasource.IndexMetadata{
			Name:      name,
			Columns:   []string{column},
			IsUnique:  unique,
			IsPrimary: name == "PRIMARY",
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	return indexes, nil
}

func (MySQL) ForeignKeys(ctx context.Context, q Querier, table string) ([]datasource.ForeignKeyMetadata, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT constraint_name, table_name, column_name,
		       referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var fk datasource.ForeignKeyMetadata
		if err := rows.Scan(&fk.ConstraintName, &fk.SourceTable, &fk.SourceColumn,
			&fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	return fks, nil
}
