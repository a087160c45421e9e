package models

import (
	"sort"
)

// Declared field types. Discovered SQL types are normalized into this set so
// prompts read the same regardless of the backing database.
const (
	FieldTypeString   = "string"
	FieldTypeText     = "text"
	FieldTypeInteger  = "integer"
	FieldTypeBigInt   = "bigint"
	FieldTypeFloat    = "float"
	FieldTypeDecimal  = "decimal"
	FieldTypeBoolean  = "boolean"
	FieldTypeDate     = "date"
	FieldTypeDateTime = "datetime"
	FieldTypeTime     = "time"
	FieldTypeJSON     = "json"
	FieldTypeUUID     = "uuid"
	FieldTypeBinary   = "binary"
	FieldTypeEnum     = "enum"
)

// FieldConstraint describes one generatable column with everything known
// about what values it accepts.
type FieldConstraint struct {
	Name        string           `json:"name" yaml:"name"`
	Type        string           `json:"type" yaml:"type"`
	SQLType     string           `json:"sql_type,omitempty" yaml:"sql_type,omitempty"`
	Nullable    bool             `json:"nullable" yaml:"nullable"`
	Default     *string          `json:"default,omitempty" yaml:"default,omitempty"`
	Limit       *int             `json:"limit,omitempty" yaml:"limit,omitempty"`
	Precision   *int             `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale       *int             `json:"scale,omitempty" yaml:"scale,omitempty"`
	EnumValues  []string         `json:"enum_values,omitempty" yaml:"enum_values,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
	PrimaryKey  bool             `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
}

// Validation kinds. Anything unrecognized is kept as ValidationOther with its
// raw name so it can still be reported.
const (
	ValidationPresence     = "presence"
	ValidationLength       = "length"
	ValidationNumericality = "numericality"
	ValidationInclusion    = "inclusion"
	ValidationExclusion    = "exclusion"
	ValidationFormat       = "format"
	ValidationOther        = "other"
)

// ValidationRule is a single normalized validator attached to one field.
type ValidationRule struct {
	Kind    string         `json:"kind" yaml:"kind"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"` // raw validator name
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option returns the named option and whether it was set.
func (r ValidationRule) Option(name string) (any, bool) {
	v, ok := r.Options[name]
	return v, ok
}

// Association macros.
const (
	MacroBelongsTo           = "belongs_to"
	MacroHasOne              = "has_one"
	MacroHasMany             = "has_many"
	MacroHasManyThrough      = "has_many_through"
	MacroHasAndBelongsToMany = "has_and_belongs_to_many"
)

// ValidMacros lists the association macros a model definition may use.
var ValidMacros = []string{
	MacroBelongsTo,
	MacroHasOne,
	MacroHasMany,
	MacroHasManyThrough,
	MacroHasAndBelongsToMany,
}

// Association is a declared relationship from one table to another. For
// belongs-to associations ForeignKey is the local column and Table/PrimaryKey
// name the referenced identifier.
type Association struct {
	Name       string         `json:"name" yaml:"name"`
	Macro      string         `json:"macro" yaml:"macro"`
	Table      string         `json:"table" yaml:"table"`
	ForeignKey string         `json:"foreign_key" yaml:"foreign_key"`
	PrimaryKey string         `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Options    map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// IsBelongsTo reports whether the association stores its key on this table.
func (a Association) IsBelongsTo() bool {
	return a.Macro == MacroBelongsTo
}

// ReferencedKey returns the referenced identifier column, defaulting to "id".
func (a Association) ReferencedKey() string {
	if a.PrimaryKey == "" {
		return "id"
	}
	return a.PrimaryKey
}

// UniqueIndex is a unique index discovered on a table.
type UniqueIndex struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ForeignKeyConstraint is a foreign key discovered on a table.
type ForeignKeyConstraint struct {
	FromTable  string `json:"from_table"`
	ToTable    string `json:"to_table"`
	Column     string `json:"column"`
	PrimaryKey string `json:"primary_key"`
}

// BestEffort carries a value that may not be obtainable in every
// environment. When Unavailable is non-empty, Value is the zero value and
// Unavailable says why.
type BestEffort[T any] struct {
	Value       T      `json:"value"`
	Unavailable string `json:"unavailable,omitempty"`
}

// Available builds a populated BestEffort.
func Available[T any](v T) BestEffort[T] {
	return BestEffort[T]{Value: v}
}

// Unavailable builds an empty BestEffort with a reason.
func Unavailable[T any](reason string) BestEffort[T] {
	return BestEffort[T]{Unavailable: reason}
}

// OK reports whether the value was obtained.
func (b BestEffort[T]) OK() bool {
	return b.Unavailable == ""
}

// DatabaseConstraints holds constraints read from the live database.
type DatabaseConstraints struct {
	UniqueIndexes BestEffort[[]UniqueIndex]          `json:"unique_indexes"`
	ForeignKeys   BestEffort[[]ForeignKeyConstraint] `json:"foreign_keys"`
}

// SchemaBundle is the full analysis of one table.
type SchemaBundle struct {
	TableName    string                      `json:"table_name"`
	Fields       []FieldConstraint           `json:"fields"`
	Enums        map[string][]string         `json:"enums"`
	Validations  map[string][]ValidationRule `json:"validations"`
	Associations []Association               `json:"associations"`
	Constraints  DatabaseConstraints         `json:"constraints"`
}

// Field returns the named field constraint.
func (b SchemaBundle) Field(name string) (FieldConstraint, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldConstraint{}, false
}

// FieldNames returns field names in column order.
func (b SchemaBundle) FieldNames() []string {
	names := make([]string, len(b.Fields))
	for i, f := range b.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldEntry is one entry of a projected field map.
type FieldEntry struct {
	Key   string
	Value any
}

// ProjectFields renders fields as ordered name → type entries, adding a
// "<field>_enum_values" entry after each enum field and a
// "<field>_validations" entry after each validated field. It is the
// name/type view handed to callers that want a flat map instead of
// FieldConstraint values.
func ProjectFields(fields []FieldConstraint) []FieldEntry {
	entries := make([]FieldEntry, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, FieldEntry{Key: f.Name, Value: f.Type})
		if len(f.EnumValues) > 0 {
			entries = append(entries, FieldEntry{Key: f.Name + "_enum_values", Value: append([]string(nil), f.EnumValues...)})
		}
		if len(f.Validations) > 0 {
			rules := make([]map[string]any, len(f.Validations))
			for i, rule := range f.Validations {
				rules[i] = map[string]any{"type": rule.Kind, "options": rule.Options}
			}
			entries = append(entries, FieldEntry{Key: f.Name + "_validations", Value: rules})
		}
	}
	return entries
}

// FieldMap converts projected entries into a map.
func FieldMap(entries []FieldEntry) map[string]any {
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
