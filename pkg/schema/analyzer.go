// Package schema turns a model descriptor (and, when available, the live
// database behind it) into the constraint bundle prompts are built from.
package schema

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// Mode selects how much of each field is extracted.
type Mode int

const (
	// ModeBasic yields name and declared type only.
	ModeBasic Mode = iota
	// ModeWithConstraints adds column facts, enum values and validations.
	ModeWithConstraints
)

// Timestamp bookkeeping columns maintained at write time.
const (
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Options tune field extraction.
type Options struct {
	// IncludeTimestamps keeps created_at/updated_at in the extracted fields.
	IncludeTimestamps bool
}

var (
	lengthOptions       = []string{"minimum", "maximum", "in", "within", "is"}
	numericalityOptions = []string{"greater_than", "greater_than_or_equal_to", "equal_to",
		"less_than", "less_than_or_equal_to", "odd", "even", "only_integer"}
	membershipOptions  = []string{"in"}
	formatOptions      = []string{"with", "without"}
	commonOptions      = []string{"allow_nil", "allow_blank", "message", "on"}
	associationOptions = []string{"dependent", "counter_cache", "as", "through", "source", "polymorphic"}
)

// Analyzer extracts the constraint bundle of one model. The store is
// optional; without it database constraints are reported unavailable.
type Analyzer struct {
	model  *models.Model
	store  datasource.Store
	opts   Options
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. store and logger may be nil.
func NewAnalyzer(model *models.Model, store datasource.Store, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		model:  model,
		store:  store,
		opts:   opts,
		logger: logger.Named("schema"),
	}
}

// Analyze returns the complete bundle. It never fails: database
// constraints that cannot be read are marked unavailable instead.
func (a *Analyzer) Analyze(ctx context.Context) models.SchemaBundle {
	return models.SchemaBundle{
		TableName:    a.model.TableName,
		Fields:       a.ExtractFields(ModeWithConstraints),
		Enums:        a.ExtractEnums(),
		Validations:  a.ExtractValidations(),
		Associations: a.ExtractAssociations(),
		Constraints:  a.ExtractConstraints(ctx),
	}
}

// ExtractFields returns one FieldConstraint per generatable column in table
// order. The primary key is always skipped and timestamps are skipped
// unless requested. ModeWithConstraints also skips *_id reference columns,
// which are filled from existing rows rather than generated.
func (a *Analyzer) ExtractFields(mode Mode) []models.FieldConstraint {
	pk := a.model.PrimaryKeyName()
	enums := a.ExtractEnums()
	validations := a.ExtractValidations()

	fields := make([]models.FieldConstraint, 0, len(a.model.Columns))
	for _, col := range a.model.Columns {
		if col.Name == pk || col.PrimaryKey {
			continue
		}
		if !a.opts.IncludeTimestamps && (col.Name == ColumnCreatedAt || col.Name == ColumnUpdatedAt) {
			continue
		}

		if mode == ModeBasic {
			fields = append(fields, models.FieldConstraint{Name: col.Name, Type: col.Type})
			continue
		}

		if strings.HasSuffix(col.Name, "_id") {
			continue
		}
		fields = append(fields, models.FieldConstraint{
			Name:        col.Name,
			Type:        col.Type,
			SQLType:     col.SQLType,
			Nullable:    col.Nullable,
			Default:     col.Default,
			Limit:       col.Limit,
			Precision:   col.Precision,
			Scale:       col.Scale,
			EnumValues:  enums[col.Name],
			Validations: validations[col.Name],
		})
	}
	return fields
}

// ExtractEnums returns each enum attribute's allowed values in declared order.
func (a *Analyzer) ExtractEnums() map[string][]string {
	enums := make(map[string][]string, len(a.model.Enums))
	for _, e := range a.model.Enums {
		enums[e.Field] = append([]string(nil), e.Values...)
	}
	return enums
}

// ExtractValidations walks every validator and files a normalized rule
// under each attribute it covers.
func (a *Analyzer) ExtractValidations() map[string][]models.ValidationRule {
	validations := make(map[string][]models.ValidationRule)
	for _, v := range a.model.Validators {
		kind := models.NormalizeValidationKind(v.Kind)
		rule := models.ValidationRule{
			Kind:    kind,
			Name:    v.Kind,
			Options: filterValidatorOptions(kind, v.Options),
		}
		for _, attr := range v.Attributes {
			validations[attr] = append(validations[attr], rule)
		}
	}
	return validations
}

func filterValidatorOptions(kind string, opts map[string]any) map[string]any {
	var keep []string
	switch kind {
	case models.ValidationLength:
		keep = lengthOptions
	case models.ValidationNumericality:
		keep = numericalityOptions
	case models.ValidationInclusion, models.ValidationExclusion:
		keep = membershipOptions
	case models.ValidationFormat:
		keep = formatOptions
	}

	out := make(map[string]any)
	for _, list := range [][]string{keep, commonOptions} {
		for _, key := range list {
			if v, ok := opts[key]; ok {
				out[key] = v
			}
		}
	}
	return out
}

// ExtractAssociations returns every declared association with only its
// non-empty options.
func (a *Analyzer) ExtractAssociations() []models.Association {
	out := make([]models.Association, 0, len(a.model.Associations))
	for _, assoc := range a.model.Associations {
		filtered := make(map[string]any)
		for _, key := range associationOptions {
			if v, ok := assoc.Options[key]; ok && present(v) {
				filtered[key] = v
			}
		}
		assoc.Options = filtered
		out = append(out, assoc)
	}
	return out
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	default:
		return true
	}
}

// ExtractConstraints reads unique indexes and foreign keys from the store.
// Each part is independently best-effort.
func (a *Analyzer) ExtractConstraints(ctx context.Context) models.DatabaseConstraints {
	if a.store == nil {
		return models.DatabaseConstraints{
			UniqueIndexes: models.Unavailable[[]models.UniqueIndex]("no database connection"),
			ForeignKeys:   models.Unavailable[[]models.ForeignKeyConstraint]("no database connection"),
		}
	}

	caps := a.store.Capabilities()
	table := a.model.TableName

	var constraints models.DatabaseConstraints
	if !caps.Indexes {
		constraints.UniqueIndexes = models.Unavailable[[]models.UniqueIndex](
			fmt.Sprintf("index introspection not supported by %s", a.store.Type()))
	} else if indexes, err := a.store.DiscoverIndexes(ctx, table); err != nil {
		a.logger.Warn("Unique index introspection failed", zap.String("table", table), zap.Error(err))
		constraints.UniqueIndexes = models.Unavailable[[]models.UniqueIndex]("introspection failed: " + err.Error())
	} else {
		unique := make([]models.UniqueIndex, 0, len(indexes))
		for _, idx := range indexes {
			if idx.IsUnique && !idx.IsPrimary {
				unique = append(unique, models.UniqueIndex{Name: idx.Name, Columns: idx.Columns})
			}
		}
		constraints.UniqueIndexes = models.Available(unique)
	}

	if !caps.ForeignKeys {
		constraints.ForeignKeys = models.Unavailable[[]models.ForeignKeyConstraint](
			fmt.Sprintf("foreign key introspection not supported by %s", a.store.Type()))
	} else if fks, err := a.store.DiscoverForeignKeys(ctx, table); err != nil {
		a.logger.Warn("Foreign key introspection failed", zap.String("table", table), zap.Error(err))
		constraints.ForeignKeys = models.Unavailable[[]models.ForeignKeyConstraint]("introspection failed: " + err.Error())
	} else {
		out := make([]models.ForeignKeyConstraint, len(fks))
		for i, fk := range fks {
			out[i] = models.ForeignKeyConstraint{
				FromTable:  fk.SourceTable,
				ToTable:    fk.TargetTable,
				Column:     fk.SourceColumn,
				PrimaryKey: fk.TargetColumn,
			}
		}
		constraints.ForeignKeys = models.Available(out)
	}

	return constraints
}
