package schema

import (
	"context"
	"fmt"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// LoadModel builds the model for table from the live database, merged with
// an optional declared definition. Declared enums, validators and
// associations win; the database fills in columns, enum labels the
// definition does not declare, and belongs-to associations inferred from
// foreign keys.
//
// With a nil store the declared definition is returned as is, which must
// then list its columns.
func LoadModel(ctx context.Context, store datasource.Store, table string, def *models.Model, logger *zap.Logger) (*models.Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("schema")

	if store == nil {
		if def == nil || len(def.Columns) == 0 {
			return nil, fmt.Errorf("model %s: no database connection and no declared columns", table)
		}
		m := cloneModel(def)
		if m.TableName == "" {
			m.TableName = table
		}
		return m, nil
	}

	columns, err := store.DiscoverColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("discover columns for %s: %w", table, err)
	}

	m := &models.Model{TableName: table}
	if def != nil {
		m = cloneModel(def)
		m.TableName = table
	}

	declaredEnums := make(map[string]bool, len(m.Enums))
	for _, e := range m.Enums {
		declaredEnums[e.Field] = true
	}

	m.Columns = make([]models.Column, 0, len(columns))
	for _, c := range columns {
		m.Columns = append(m.Columns, models.Column{
			Name:       c.ColumnName,
			Type:       datasource.NormalizeType(c.DataType),
			SQLType:    c.DataType,
			Nullable:   c.IsNullable,
			Default:    c.DefaultValue,
			Limit:      c.MaxLength,
			Precision:  c.Precision,
			Scale:      c.Scale,
			PrimaryKey: c.IsPrimaryKey,
		})
		if len(c.EnumValues) > 0 && !declaredEnums[c.ColumnName] {
			m.Enums = append(m.Enums, models.EnumDefinition{Field: c.ColumnName, Values: c.EnumValues})
		}
		if c.IsPrimaryKey && m.PrimaryKey == "" {
			m.PrimaryKey = c.ColumnName
		}
	}

	if !store.Capabilities().ForeignKeys {
		return m, nil
	}
	fks, err := store.DiscoverForeignKeys(ctx, table)
	if err != nil {
		logger.Warn("Could not infer associations from foreign keys",
			zap.String("table", table),
			zap.Error(err))
		return m, nil
	}

	declaredKeys := make(map[string]bool, len(m.Associations))
	for _, a := range m.BelongsTo() {
		declaredKeys[a.ForeignKey] = true
	}
	for _, fk := range fks {
		if declaredKeys[fk.SourceColumn] {
			continue
		}
		declaredKeys[fk.SourceColumn] = true
		m.Associations = append(m.Associations, models.Association{
			Name:       associationName(fk.SourceColumn, fk.TargetTable),
			Macro:      models.MacroBelongsTo,
			Table:      fk.TargetTable,
			ForeignKey: fk.SourceColumn,
			PrimaryKey: fk.TargetColumn,
		})
	}

	return m, nil
}

// associationName derives "author" from author_id, falling back to the
// singular of the referenced table.
func associationName(column, target string) string {
	if n := len(column); n > 3 && column[n-3:] == "_id" {
		return column[:n-3]
	}
	return inflection.Singular(target)
}

func cloneModel(src *models.Model) *models.Model {
	m := *src
	m.Columns = append([]models.Column(nil), src.Columns...)
	m.Enums = append([]models.EnumDefinition(nil), src.Enums...)
	m.Validators = append([]models.Validator(nil), src.Validators...)
	m.Associations = append([]models.Association(nil), src.Associations...)
	return &m
}
