package datasource

// ColumnMetadata represents a discovered database column.
type ColumnMetadata struct {
	ColumnName      string
	DataType        string // raw type as reported by the database
	IsNullable      bool
	IsPrimaryKey    bool
	OrdinalPosition int
	DefaultValue    *string
	MaxLength       *int // character length for string types
	Precision       *int
	Scale           *int
	EnumValues      []string // labels of a native enum type, in declared order
}

// IndexMetadata represents an index on a table.
type IndexMetadata struct {
	Name      string
	Columns   []string
	IsUnique  bool
	IsPrimary bool
}

// ForeignKeyMetadata represents a discovered foreign key constraint.
type ForeignKeyMetadata struct {
	ConstraintName string
	SourceTable    string
	SourceColumn   string
	TargetTable    string
	TargetColumn   string
}
