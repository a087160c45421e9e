package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-faker/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-faker/pkg/logging"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of LLM responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// fencePattern matches markdown code fence markers.
var fencePattern = regexp.MustCompile("```json|```")

// CleanContent removes leading <think> blocks and markdown fences around
// generated JSON.
func CleanContent(content string) string {
	cleaned := thinkTagPattern.ReplaceAllString(content, "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ParseRecords decodes generated content into records. The content must be
// a JSON array of objects; a single object is taken as a one-element array.
// When the cleaned content is not JSON, the first balanced array or object
// embedded in it is tried before giving up. Integral numbers become int64.
func ParseRecords(content string) ([]models.Record, error) {
	cleaned := CleanContent(content)

	records, err := decodeRecords(cleaned)
	if err == nil {
		return records, nil
	}

	if extracted, extractErr := ExtractJSON(cleaned); extractErr == nil && extracted != cleaned {
		if records, retryErr := decodeRecords(extracted); retryErr == nil {
			return records, nil
		}
	}
	return nil, err
}

func decodeRecords(content string) ([]models.Record, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected content after JSON value")
	}

	switch val := doc.(type) {
	case []any:
		records := make([]models.Record, 0, len(val))
		for i, item := range val {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
			records = append(records, toRecord(obj))
		}
		return records, nil
	case map[string]any:
		return []models.Record{toRecord(val)}, nil
	default:
		return nil, fmt.Errorf("expected a JSON array of objects")
	}
}

func toRecord(obj map[string]any) models.Record {
	r := make(models.Record, len(obj))
	for k, v := range obj {
		r[k] = jsonutil.NormalizeValue(v)
	}
	return r
}

// parseError builds the error returned when generated content cannot be
// decoded. It quotes the start of the raw content.
func parseError(provider, model, content string, cause error) *Error {
	msg := fmt.Sprintf("failed to parse response as JSON. Raw content: %s",
		logging.TruncateString(content, logging.MaxContentLogLength))
	return &Error{
		Type:     ErrorTypeParse,
		Provider: provider,
		Model:    model,
		Message:  msg,
		Cause:    cause,
	}
}

// ExtractJSON extracts JSON content from an LLM response that may contain
// <think> tags, markdown code blocks, or other formatting.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	// Find the first occurrence of { or [ to determine JSON type
	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	if objStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	trimmed := bytes.TrimSpace([]byte(cleaned))
	if json.Valid(trimmed) {
		return string(trimmed), nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
