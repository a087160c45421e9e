package models

// Column is a table column as the model layer sees it.
type Column struct {
	Name       string  `json:"name" yaml:"name"`
	Type       string  `json:"type" yaml:"type"`
	SQLType    string  `json:"sql_type,omitempty" yaml:"sql_type,omitempty"`
	Nullable   bool    `json:"nullable" yaml:"nullable"`
	Default    *string `json:"default,omitempty" yaml:"default,omitempty"`
	Limit      *int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	Precision  *int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale      *int    `json:"scale,omitempty" yaml:"scale,omitempty"`
	PrimaryKey bool    `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
}

// EnumDefinition declares the allowed values of an enum attribute in
// declaration order.
type EnumDefinition struct {
	Field  string   `json:"field" yaml:"field"`
	Values []string `json:"values" yaml:"values"`
}

// Validator is a declared validator. Kind accepts validator class names
// ("PresenceValidator") as well as short names ("presence").
type Validator struct {
	Kind       string         `json:"kind" yaml:"kind"`
	Attributes []string       `json:"attributes" yaml:"attributes"`
	Options    map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Model describes a table the way an ORM model would: its columns plus
// enums, validators and associations declared on top of them.
type Model struct {
	TableName    string           `json:"table_name" yaml:"table_name"`
	PrimaryKey   string           `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Columns      []Column         `json:"columns" yaml:"columns"`
	Enums        []EnumDefinition `json:"enums,omitempty" yaml:"enums,omitempty"`
	Validators   []Validator      `json:"validators,omitempty" yaml:"validators,omitempty"`
	Associations []Association    `json:"associations,omitempty" yaml:"associations,omitempty"`
}

// PrimaryKeyName returns the primary key column, defaulting to "id".
func (m *Model) PrimaryKeyName() string {
	if m.PrimaryKey != "" {
		return m.PrimaryKey
	}
	for _, c := range m.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return "id"
}

// ColumnNames returns column names in table order.
func (m *Model) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (m *Model) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has the named column.
func (m *Model) HasColumn(name string) bool {
	_, ok := m.Column(name)
	return ok
}

// EnumValues returns the allowed values of an enum attribute, or nil.
func (m *Model) EnumValues(field string) []string {
	for _, e := range m.Enums {
		if e.Field == field {
			return e.Values
		}
	}
	return nil
}

// BelongsTo returns the belongs-to associations in declaration order.
func (m *Model) BelongsTo() []Association {
	var out []Association
	for _, a := range m.Associations {
		if a.IsBelongsTo() {
			out = append(out, a)
		}
	}
	return out
}

// Project keeps only the keys of r that are columns of the table.
func (m *Model) Project(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if m.HasColumn(k) {
			out[k] = v
		}
	}
	return out
}
