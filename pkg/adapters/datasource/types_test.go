package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		// PostgreSQL information_schema
		{"character varying", models.FieldTypeString},
		{"integer", models.FieldTypeInteger},
		{"bigint", models.FieldTypeBigInt},
		{"numeric", models.FieldTypeDecimal},
		{"double precision", models.FieldTypeFloat},
		{"timestamp without time zone", models.FieldTypeDateTime},
		{"jsonb", models.FieldTypeJSON},
		{"uuid", models.FieldTypeUUID},
		{"USER-DEFINED", models.FieldTypeEnum},
		// MySQL
		{"tinyint(1)", models.FieldTypeBoolean},
		{"int(11) unsigned", models.FieldTypeInteger},
		{"varchar(255)", models.FieldTypeString},
		{"longtext", models.FieldTypeText},
		{"enum('a','b')", models.FieldTypeEnum},
		// SQLite declared types
		{"VARCHAR(100)", models.FieldTypeString},
		{"INTEGER", models.FieldTypeInteger},
		{"BOOLEAN", models.FieldTypeBoolean},
		{"DATETIME", models.FieldTypeDateTime},
		{"", models.FieldTypeString},
		// SQL Server
		{"nvarchar", models.FieldTypeString},
		{"datetime2", models.FieldTypeDateTime},
		{"bit", models.FieldTypeBoolean},
		{"uniqueidentifier", models.FieldTypeUUID},
		{"money", models.FieldTypeDecimal},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeType(tt.raw))
		})
	}
}

func TestClampSampleLimit(t *testing.T) {
	assert.Equal(t, MaxSampleSize, ClampSampleLimit(0))
	assert.Equal(t, MaxSampleSize, ClampSampleLimit(-5))
	assert.Equal(t, MaxSampleSize, ClampSampleLimit(5000))
	assert.Equal(t, 10, ClampSampleLimit(10))
}
