package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
)

func TestNormalizeValidationKind(t *testing.T) {
	tests := map[string]string{
		"PresenceValidator":                         ValidationPresence,
		"presence":                                  ValidationPresence,
		"Presence":                                  ValidationPresence,
		"ActiveModel::Validations::LengthValidator": ValidationLength,
		"NumericalityValidator":                     ValidationNumericality,
		"inclusion":                                 ValidationInclusion,
		"ExclusionValidator":                        ValidationExclusion,
		"format":                                    ValidationFormat,
		"UniquenessValidator":                       ValidationOther,
		"custom_email":                              ValidationOther,
	}

	for raw, want := range tests {
		assert.Equal(t, want, NormalizeValidationKind(raw), raw)
	}
}

func productModel() *Model {
	return &Model{
		TableName: "products",
		Columns: []Column{
			{Name: "id", Type: FieldTypeInteger, PrimaryKey: true},
			{Name: "name", Type: FieldTypeString},
			{Name: "price", Type: FieldTypeDecimal},
			{Name: "status", Type: FieldTypeString},
			{Name: "sku", Type: FieldTypeString, Nullable: true},
		},
		Enums: []EnumDefinition{{Field: "status", Values: []string{"draft", "active", "archived"}}},
		Validators: []Validator{
			{Kind: "PresenceValidator", Attributes: []string{"name", "price"}},
			{Kind: "length", Attributes: []string{"name"}, Options: map[string]any{"minimum": 3, "maximum": 10}},
			{Kind: "numericality", Attributes: []string{"price"}, Options: map[string]any{"greater_than": 0}},
			{Kind: "format", Attributes: []string{"sku"}, Options: map[string]any{"with": `/\A[A-Z]{3}-\d+\z/`, "allow_nil": true}},
		},
	}
}

func TestModel_Validate_Valid(t *testing.T) {
	m := productModel()

	err := m.Validate(Record{"name": "Widget", "price": 9.99, "status": "active", "sku": "ABC-12"})
	assert.NoError(t, err)

	// allow_nil skips the format rule
	err = m.Validate(Record{"name": "Widget", "price": int64(3), "status": "draft", "sku": nil})
	assert.NoError(t, err)
}

func TestModel_Validate_CollectsAllErrors(t *testing.T) {
	m := productModel()

	err := m.Validate(Record{"name": "", "price": -1, "status": "sold", "sku": "abc"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, errors.Is(err, apperrors.ErrRecordInvalid))
	assert.Equal(t, "products", verr.Table)

	assert.Equal(t, []FieldError{
		{Field: "status", Message: `has invalid value "sold"`},
		{Field: "name", Message: "can't be blank"},
		{Field: "name", Message: "is too short (minimum is 3 characters)"},
		{Field: "price", Message: "must be greater than 0"},
		{Field: "sku", Message: "is invalid"},
	}, verr.Errors)
	assert.Contains(t, err.Error(), "products: validation failed: status has invalid value")
}

func TestCheckRule_Length(t *testing.T) {
	tests := []struct {
		name string
		opts map[string]any
		v    any
		want string
	}{
		{"within bounds", map[string]any{"minimum": 2, "maximum": 4}, "abc", ""},
		{"too long", map[string]any{"maximum": 4}, "abcde", "is too long (maximum is 4 characters)"},
		{"exact", map[string]any{"is": 2}, "abc", "is the wrong length (should be 2 characters)"},
		{"in range", map[string]any{"in": []any{1, 3}}, "abcd", "is too long (maximum is 3 characters)"},
		{"multibyte counts runes", map[string]any{"maximum": 3}, "日本語", ""},
		{"nil is short", map[string]any{"minimum": 1}, nil, "is too short (minimum is 1 characters)"},
		{"custom message", map[string]any{"maximum": 1, "message": "too wordy"}, "ab", "too wordy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkRule(ValidationLength, tt.opts, tt.v))
		})
	}
}

func TestCheckRule_Numericality(t *testing.T) {
	tests := []struct {
		name string
		opts map[string]any
		v    any
		want string
	}{
		{"not a number", nil, "abc", "is not a number"},
		{"numeric string", map[string]any{"greater_than_or_equal_to": 18}, "21", ""},
		{"integer only", map[string]any{"only_integer": true}, 2.5, "must be an integer"},
		{"upper bound", map[string]any{"less_than_or_equal_to": 120}, int64(121), "must be less than or equal to 120"},
		{"strict lower", map[string]any{"greater_than": 0}, 0, "must be greater than 0"},
		{"equal", map[string]any{"equal_to": 5}, 5.0, ""},
		{"odd", map[string]any{"odd": true}, 4, "must be odd"},
		{"even", map[string]any{"even": true}, 4, ""},
		{"allow nil", map[string]any{"allow_nil": true}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkRule(ValidationNumericality, tt.opts, tt.v))
		})
	}
}

func TestCheckRule_InclusionExclusion(t *testing.T) {
	in := map[string]any{"in": []any{"S", "M", "L"}}
	assert.Empty(t, checkRule(ValidationInclusion, in, "M"))
	assert.Equal(t, "is not included in the list", checkRule(ValidationInclusion, in, "XL"))

	numbers := map[string]any{"in": []int{1, 2, 3}}
	assert.Empty(t, checkRule(ValidationInclusion, numbers, int64(2)))

	reserved := map[string]any{"in": []string{"admin", "root"}}
	assert.Equal(t, "is reserved", checkRule(ValidationExclusion, reserved, "root"))
	assert.Empty(t, checkRule(ValidationExclusion, reserved, "alice"))
}

func TestCheckRule_SkipsUpdateOnlyRules(t *testing.T) {
	assert.Empty(t, checkRule(ValidationPresence, map[string]any{"on": "update"}, nil))
	assert.Equal(t, "can't be blank", checkRule(ValidationPresence, map[string]any{"on": "create"}, "  "))
}

func TestCompileFormat(t *testing.T) {
	re, err := CompileFormat(`/^[a-z]+$/i`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("Hello"))

	re, err = CompileFormat(`\A\d{5}\z`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("12345"))
	assert.False(t, re.MatchString("1234"))

	_, err = CompileFormat(`/(unclosed/`)
	assert.Error(t, err)
}
