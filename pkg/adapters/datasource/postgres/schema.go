package postgres

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
)

// DiscoverColumns returns columns for a table in ordinal order.
// Uses pg_index for primary key detection, which identifies primary keys
// even when they were created as unique indexes by an ORM.
func (s *Store) DiscoverColumns(ctx context.Context, table string) ([]datasource.ColumnMetadata, error) {
	const query = `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable = 'YES' AS is_nullable,
			COALESCE(pk.is_pk, false) AS is_primary_key,
			c.ordinal_position,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT a.attname AS column_name, true AS is_pk
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE ix.indisprimary = true
			  AND n.nspname = $1
			  AND t.relname = $2
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	var enumTypes []string
	for rows.Next() {
		var c datasource.ColumnMetadata
		var udtName string
		var maxLen, precision, scale *int32
		if err := rows.Scan(&c.ColumnName, &c.DataType, &udtName, &c.IsNullable, &c.IsPrimaryKey,
			&c.OrdinalPosition, &c.DefaultValue, &maxLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.MaxLength = intPtr(maxLen)
		c.Precision = intPtr(precision)
		c.Scale = intPtr(scale)
		if c.DataType == "USER-DEFINED" {
			// resolved to labels below once rows are drained
			c.DataType = udtName
			enumTypes = append(enumTypes, udtName)
		} else {
			enumTypes = append(enumTypes, "")
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s: %w", s.schema, table, apperrors.ErrNotFound)
	}

	for i, typeName := range enumTypes {
		if typeName == "" {
			continue
		}
		labels, err := s.enumLabels(ctx, typeName)
		if err != nil {
			return nil, err
		}
		if len(labels) > 0 {
			columns[i].EnumValues = labels
			columns[i].DataType = "enum"
		}
	}

	return columns, nil
}

// enumLabels returns the labels of a native enum type in sort order.
func (s *Store) enumLabels(ctx context.Context, typeName string) ([]string, error) {
	const query = `
		SELECT e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE t.typname = $1
		ORDER BY e.enumsortorder
	`

	rows, err := s.pool.Query(ctx, query, typeName)
	if err != nil {
		return nil, fmt.Errorf("query enum labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan enum label: %w", err)
		}
		labels = append(labels, label)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enum labels: %w", err)
	}

	return labels, nil
}

// DiscoverIndexes returns the indexes of a table with columns in key order.
func (s *Store) DiscoverIndexes(ctx context.Context, table string) ([]datasource.IndexMetadata, error) {
	const query = `
		SELECT i.relname, ix.indisunique, ix.indisprimary, a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relname = $2
		ORDER BY i.relname, k.ord
	`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []datasource.IndexMetadata
	for rows.Next() {
		var name, column string
		var unique, primary bool
		if err := rows.Scan(&name, &unique, &primary, &column); err != nil {
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
			IsPrimary: primary,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	return indexes, nil
}

// DiscoverForeignKeys returns the foreign keys declared on a table.
func (s *Store) DiscoverForeignKeys(ctx context.Context, table string) ([]datasource.ForeignKeyMetadata, error) {
	const query = `
		SELECT
			tc.constraint_name,
			kcu.table_name AS source_table,
			kcu.column_name AS source_column,
			ccu.table_name AS target_table,
			ccu.column_name AS target_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND kcu.table_schema = $1
		  AND kcu.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
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

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
