package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/jsonutil"
)

// NormalizeValidationKind maps a validator name to one of the Validation*
// kinds. Qualified class names ("ActiveModel::Validations::LengthValidator"),
// CamelCase ("Presence") and short names ("numericality") are accepted.
func NormalizeValidationKind(raw string) string {
	name := raw
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(toSnake(name), "_validator")

	switch name {
	case ValidationPresence, ValidationLength, ValidationNumericality,
		ValidationInclusion, ValidationExclusion, ValidationFormat:
		return name
	default:
		return ValidationOther
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FieldError is one failed validation on one attribute.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + " " + e.Message
}

// ValidationError lists every failed validation of a record. It matches
// apperrors.ErrRecordInvalid with errors.Is.
type ValidationError struct {
	Table  string       `json:"table"`
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Table, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrRecordInvalid
}

// Validate runs enum membership and every declared validator against r.
// It returns nil or a *ValidationError.
func (m *Model) Validate(r Record) error {
	var errs []FieldError

	for _, enum := range m.Enums {
		v, ok := r[enum.Field]
		if !ok || v == nil {
			continue
		}
		if !containsValue(enum.Values, v) {
			errs = append(errs, FieldError{Field: enum.Field, Message: fmt.Sprintf("has invalid value %q", jsonutil.FormatValue(v))})
		}
	}

	for _, validator := range m.Validators {
		kind := NormalizeValidationKind(validator.Kind)
		for _, attr := range validator.Attributes {
			if msg := checkRule(kind, validator.Options, r[attr]); msg != "" {
				errs = append(errs, FieldError{Field: attr, Message: msg})
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Table: m.TableName, Errors: errs}
	}
	return nil
}

func checkRule(kind string, opts map[string]any, v any) string {
	if on, ok := opts["on"].(string); ok && on == "update" {
		return ""
	}
	if v == nil && truthy(opts["allow_nil"]) {
		return ""
	}
	if isBlank(v) && truthy(opts["allow_blank"]) {
		return ""
	}

	msg := ""
	switch kind {
	case ValidationPresence:
		if isBlank(v) {
			msg = "can't be blank"
		}
	case ValidationLength:
		msg = checkLength(opts, v)
	case ValidationNumericality:
		msg = checkNumericality(opts, v)
	case ValidationInclusion:
		if list, ok := optionList(opts["in"]); ok && !containsValue(list, v) {
			msg = "is not included in the list"
		}
	case ValidationExclusion:
		if list, ok := optionList(opts["in"]); ok && containsValue(list, v) {
			msg = "is reserved"
		}
	case ValidationFormat:
		msg = checkFormat(opts, v)
	}

	if msg != "" {
		if custom, ok := opts["message"].(string); ok && custom != "" {
			return custom
		}
	}
	return msg
}

func checkLength(opts map[string]any, v any) string {
	n := 0
	if v != nil {
		n = utf8.RuneCountInString(jsonutil.FormatValue(v))
	}

	minimum, hasMin := intOption(opts, "minimum")
	maximum, hasMax := intOption(opts, "maximum")
	for _, key := range []string{"in", "within"} {
		if bounds, ok := optionList(opts[key]); ok && len(bounds) == 2 {
			if lo, ok := jsonutil.ToFloat(bounds[0]); ok {
				minimum, hasMin = int(lo), true
			}
			if hi, ok := jsonutil.ToFloat(bounds[1]); ok {
				maximum, hasMax = int(hi), true
			}
		}
	}

	if is, ok := intOption(opts, "is"); ok && n != is {
		return fmt.Sprintf("is the wrong length (should be %d characters)", is)
	}
	if hasMin && n < minimum {
		return fmt.Sprintf("is too short (minimum is %d characters)", minimum)
	}
	if hasMax && n > maximum {
		return fmt.Sprintf("is too long (maximum is %d characters)", maximum)
	}
	return ""
}

func checkNumericality(opts map[string]any, v any) string {
	f, ok := jsonutil.ToFloat(v)
	if !ok {
		return "is not a number"
	}
	if truthy(opts["only_integer"]) && f != math.Trunc(f) {
		return "must be an integer"
	}

	checks := []struct {
		option string
		fails  func(x, bound float64) bool
		phrase string
	}{
		{"greater_than", func(x, b float64) bool { return x <= b }, "must be greater than"},
		{"greater_than_or_equal_to", func(x, b float64) bool { return x < b }, "must be greater than or equal to"},
		{"equal_to", func(x, b float64) bool { return x != b }, "must be equal to"},
		{"less_than", func(x, b float64) bool { return x >= b }, "must be less than"},
		{"less_than_or_equal_to", func(x, b float64) bool { return x > b }, "must be less than or equal to"},
	}
	for _, c := range checks {
		raw, ok := opts[c.option]
		if !ok {
			continue
		}
		bound, ok := jsonutil.ToFloat(raw)
		if ok && c.fails(f, bound) {
			return c.phrase + " " + jsonutil.FormatValue(raw)
		}
	}

	if truthy(opts["odd"]) && int64(f)%2 == 0 {
		return "must be odd"
	}
	if truthy(opts["even"]) && int64(f)%2 != 0 {
		return "must be even"
	}
	return ""
}

func checkFormat(opts map[string]any, v any) string {
	s := jsonutil.FormatValue(v)
	if pattern, ok := opts["with"].(string); ok {
		if re, err := CompileFormat(pattern); err == nil && !re.MatchString(s) {
			return "is invalid"
		}
	}
	if pattern, ok := opts["without"].(string); ok {
		if re, err := CompileFormat(pattern); err == nil && re.MatchString(s) {
			return "is invalid"
		}
	}
	return ""
}

// CompileFormat compiles a format option. Slash-delimited patterns with
// trailing flags ("/^[a-z]+$/i") are accepted alongside bare expressions.
func CompileFormat(pattern string) (*regexp.Regexp, error) {
	expr := pattern
	if strings.HasPrefix(expr, "/") {
		if end := strings.LastIndex(expr, "/"); end > 0 {
			flags := expr[end+1:]
			expr = expr[1:end]
			var prefix string
			for _, flag := range flags {
				// RE2 has no extended mode, so 'x' is dropped
				if flag == 'i' || flag == 'm' || flag == 's' {
					prefix += string(flag)
				}
			}
			if prefix != "" {
				expr = "(?" + prefix + ")" + expr
			}
		}
	}
	return regexp.Compile(expr)
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case bool:
		return !val
	default:
		return false
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func intOption(opts map[string]any, key string) (int, bool) {
	raw, ok := opts[key]
	if !ok {
		return 0, false
	}
	f, ok := jsonutil.ToFloat(raw)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// optionList reads a list-valued option (inclusion "in", length "within").
func optionList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func containsValue[T any](list []T, v any) bool {
	want := jsonutil.FormatValue(v)
	for _, item := range list {
		if jsonutil.FormatValue(item) == want {
			return true
		}
	}
	return false
}
