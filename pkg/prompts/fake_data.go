package prompts

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// FakeDataSystemMessage is sent as the system instruction with every
// generation prompt.
const FakeDataSystemMessage = "You are a data generator. Return only valid JSON array without any explanation."

const exampleFormat = `Example format:
[
  {
    "name": "John Doe",
    "email": "john.doe@example.com",
    "age": 30
  }
]
`

// Builder renders generation prompts according to the generation settings.
type Builder struct {
	Enhanced bool
	Locale   string
}

// NewBuilder selects the enhanced template only when validations are in use
// and the enhanced style is configured.
func NewBuilder(cfg config.GenerationConfig) Builder {
	return Builder{
		Enhanced: cfg.UseValidations && cfg.UseEnhancedPrompt(),
		Locale:   cfg.DefaultLocale,
	}
}

// Build renders the prompt asking for count records of table.
func (b Builder) Build(table string, fields []models.FieldConstraint, count int) string {
	var extra []string
	if line := localeRequirement(b.Locale); line != "" {
		extra = append(extra, line)
	}
	if b.Enhanced {
		return enhancedPrompt(table, fields, count, extra)
	}
	return simplePrompt(table, fields, count, extra)
}

func localeRequirement(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if l == "" || l == "en" || strings.HasPrefix(l, "en-") || strings.HasPrefix(l, "en_") {
		return ""
	}
	return fmt.Sprintf("- Use %s locale conventions for names, addresses and formats", locale)
}

// RecordNoun returns the lowercase singular noun for a table's records.
func RecordNoun(table string) string {
	return strings.ToLower(inflection.Singular(table))
}

// BuildSimplePrompt lists fields as comma-separated "name: type" pairs.
func BuildSimplePrompt(table string, fields []models.FieldConstraint, count int) string {
	return simplePrompt(table, fields, count, nil)
}

func simplePrompt(table string, fields []models.FieldConstraint, count int, extra []string) string {
	descriptions := make([]string, len(fields))
	for i, f := range fields {
		descriptions[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Generate %d realistic fake %s records as JSON array.\n", count, RecordNoun(table)))
	prompt.WriteString(fmt.Sprintf("Fields: %s\n\n", strings.Join(descriptions, ", ")))
	prompt.WriteString("Requirements:\n")
	prompt.WriteString("- Return only valid JSON array\n")
	prompt.WriteString("- Make data realistic and diverse\n")
	prompt.WriteString("- Use appropriate data types\n")
	prompt.WriteString("- Ensure data consistency\n")
	writeExtra(&prompt, extra)
	prompt.WriteString(exampleFormat)
	return prompt.String()
}

// BuildEnhancedPrompt puts each field on its own line followed by the
// constraints a generated value has to satisfy.
func BuildEnhancedPrompt(table string, fields []models.FieldConstraint, count int) string {
	return enhancedPrompt(table, fields, count, nil)
}

func enhancedPrompt(table string, fields []models.FieldConstraint, count int, extra []string) string {
	descriptions := make([]string, len(fields))
	for i, f := range fields {
		descriptions[i] = DescribeField(f)
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Generate %d realistic fake %s records as JSON array.\n", count, RecordNoun(table)))
	prompt.WriteString("Fields with constraints:\n")
	prompt.WriteString(strings.Join(descriptions, "\n"))
	prompt.WriteString("\n\n")
	prompt.WriteString("Requirements:\n")
	prompt.WriteString("- Return only valid JSON array\n")
	prompt.WriteString("- Make data realistic and diverse\n")
	prompt.WriteString("- Use appropriate data types\n")
	prompt.WriteString("- IMPORTANT: Ensure ALL constraints are respected for each field\n")
	prompt.WriteString("- Generate values that would pass validation in a real application\n")
	writeExtra(&prompt, extra)
	prompt.WriteString(exampleFormat)
	return prompt.String()
}

func writeExtra(prompt *strings.Builder, extra []string) {
	for _, line := range extra {
		prompt.WriteString(line + "\n")
	}
	prompt.WriteString("\n")
}

// DescribeField renders one enhanced-prompt line, e.g.
// "name: string (required, length between 3 and 50 characters)".
func DescribeField(f models.FieldConstraint) string {
	line := fmt.Sprintf("%s: %s", f.Name, f.Type)
	if len(f.EnumValues) > 0 {
		line += fmt.Sprintf(" (must be one of: %s)", strings.Join(f.EnumValues, ", "))
	}

	var clauses []string
	for _, rule := range f.Validations {
		clauses = append(clauses, describeRule(rule)...)
	}
	if len(clauses) > 0 {
		line += fmt.Sprintf(" (%s)", strings.Join(clauses, ", "))
	}
	return line
}

func describeRule(rule models.ValidationRule) []string {
	opt := func(name string) (string, bool) {
		v, ok := rule.Option(name)
		if !ok || v == nil || v == false {
			return "", false
		}
		return jsonutil.FormatValue(v), true
	}

	switch rule.Kind {
	case models.ValidationPresence:
		return []string{"required"}

	case models.ValidationLength:
		minimum, hasMin := opt("minimum")
		maximum, hasMax := opt("maximum")
		switch {
		case hasMin && hasMax:
			return []string{fmt.Sprintf("length between %s and %s characters", minimum, maximum)}
		case hasMin:
			return []string{fmt.Sprintf("minimum length %s characters", minimum)}
		case hasMax:
			return []string{fmt.Sprintf("maximum length %s characters", maximum)}
		}
		if is, ok := opt("is"); ok {
			return []string{fmt.Sprintf("exactly %s characters", is)}
		}

	case models.ValidationNumericality:
		var clauses []string
		if v, ok := opt("greater_than"); ok {
			clauses = append(clauses, "greater than "+v)
		} else if v, ok := opt("greater_than_or_equal_to"); ok {
			clauses = append(clauses, "greater than or equal to "+v)
		}
		if v, ok := opt("less_than"); ok {
			clauses = append(clauses, "less than "+v)
		} else if v, ok := opt("less_than_or_equal_to"); ok {
			clauses = append(clauses, "less than or equal to "+v)
		}
		if _, ok := opt("only_integer"); ok {
			clauses = append(clauses, "integer only")
		}
		return clauses

	case models.ValidationInclusion:
		switch in := rule.Options["in"].(type) {
		case []any, []string:
			return []string{"must be one of: " + jsonutil.FormatValue(in)}
		}

	case models.ValidationFormat:
		if with, ok := opt("with"); ok {
			return []string{"must match format: " + regexpLiteral(with)}
		}
	}
	return nil
}

// regexpLiteral renders a pattern in /re/ form.
func regexpLiteral(pattern string) string {
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.LastIndex(pattern, "/") > 0 {
		return pattern
	}
	return "/" + pattern + "/"
}
