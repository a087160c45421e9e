package datasource

import (
	"strings"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// NormalizeType maps a raw database type ("character varying", "INT",
// "datetime2", "VARCHAR(255)") to one of the models.FieldType* names.
// Unknown types fall back to string.
func NormalizeType(dataType string) string {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		// tinyint(1) is the MySQL boolean
		if strings.HasPrefix(t, "tinyint(1)") {
			return models.FieldTypeBoolean
		}
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSpace(strings.TrimSuffix(t, " unsigned"))

	switch t {
	case "bool", "boolean", "bit":
		return models.FieldTypeBoolean
	case "int", "integer", "int2", "int4", "smallint", "tinyint", "mediumint", "serial", "smallserial":
		return models.FieldTypeInteger
	case "bigint", "int8", "bigserial":
		return models.FieldTypeBigInt
	case "real", "float", "float4", "float8", "double", "double precision":
		return models.FieldTypeFloat
	case "numeric", "decimal", "money", "smallmoney":
		return models.FieldTypeDecimal
	case "date":
		return models.FieldTypeDate
	case "time", "time without time zone", "time with time zone", "timetz":
		return models.FieldTypeTime
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset", "timestamp",
		"timestamp without time zone", "timestamp with time zone", "timestamptz":
		return models.FieldTypeDateTime
	case "json", "jsonb":
		return models.FieldTypeJSON
	case "uuid", "uniqueidentifier":
		return models.FieldTypeUUID
	case "bytea", "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary", "image":
		return models.FieldTypeBinary
	case "text", "ntext", "tinytext", "mediumtext", "longtext", "clob", "xml":
		return models.FieldTypeText
	case "enum", "user-defined":
		return models.FieldTypeEnum
	}

	switch {
	case strings.Contains(t, "int"):
		return models.FieldTypeInteger
	case strings.Contains(t, "char"), strings.Contains(t, "string"):
		return models.FieldTypeString
	case strings.Contains(t, "text"):
		return models.FieldTypeText
	case strings.Contains(t, "timestamp"):
		return models.FieldTypeDateTime
	}
	return models.FieldTypeString
}
