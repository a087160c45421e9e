package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"plain fence", "```\n[{\"a\":1}]\n```\n", `[{"a":1}]`},
		{"think block", "<think>\nplanning\n</think>\n```json\n[]\n```", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanContent(tt.input))
		})
	}
}

func TestParseRecords_FencedArray(t *testing.T) {
	content := "```json\n[{\"name\": \"Ann\", \"age\": 30, \"score\": 4.5, \"active\": true}, {\"name\": \"Bob\", \"age\": 41, \"score\": 3, \"active\": false}]\n```"

	records, err := ParseRecords(content)
	require.NoError(t, err)

	assert.Equal(t, []models.Record{
		{"name": "Ann", "age": int64(30), "score": 4.5, "active": true},
		{"name": "Bob", "age": int64(41), "score": int64(3), "active": false},
	}, records)
}

func TestParseRecords_CleanedContentParsesTheSame(t *testing.T) {
	for _, content := range []string{
		"```json\n[{\"name\": \"Ann\", \"age\": 30, \"tags\": [\"a\", \"b\"]}]\n```",
		"<think>\nlist two users\n</think>\n```\n[{\"name\": \"Bo\"}, {\"name\": \"Cy\", \"meta\": {\"vip\": true}}]\n```",
		`{"title": "Dune", "pages": 412}`,
	} {
		first, err := ParseRecords(content)
		require.NoError(t, err)

		again, err := ParseRecords(CleanContent(content))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParseRecords_SingleObject(t *testing.T) {
	records, err := ParseRecords(`{"title": "Dune", "tags": ["scifi"], "meta": {"pages": 412}}`)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Dune", records[0]["title"])
	assert.Equal(t, []any{"scifi"}, records[0]["tags"])
	assert.Equal(t, map[string]any{"pages": int64(412)}, records[0]["meta"])
}

func TestParseRecords_EmbeddedInProse(t *testing.T) {
	records, err := ParseRecords("Here is your data:\n[{\"id\": 1}]\nEnjoy!")
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{"id": int64(1)}}, records)
}

func TestParseRecords_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "Sorry, I can't help with that."},
		{"scalar", "42"},
		{"array of scalars", `[1, 2, 3]`},
		{"truncated", `[{"name": "Ann"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords(tt.content)
			assert.Error(t, err)
		})
	}
}

func TestParseRecords_EmptyArray(t *testing.T) {
	records, err := ParseRecords("[]")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseError_QuotesContentPrefix(t *testing.T) {
	content := "This is not JSON at all. " +
		"It keeps going for a long while so that the message has to be cut somewhere around here and not later on."

	err := parseError("openai", "gpt-4o", content, assert.AnError)

	assert.Equal(t, ErrorTypeParse, err.Type)
	assert.Contains(t, err.Message, "Raw content: "+content[:100]+"...")
	assert.NotContains(t, err.Message, "not later on")
}

func TestExtractJSON_PlainArray(t *testing.T) {
	input := `[{"name": "test"}, {"name": "test2"}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := `<think>
Let me analyze this request...
I should return a JSON array.
</think>
[{"name": "test", "value": 123}]`

	expected := `[{"name": "test", "value": 123}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_BracketsInsideStrings(t *testing.T) {
	input := `Result: [{"note": "uses ] and [ inside", "n": 1}] done`

	expected := `[{"note": "uses ] and [ inside", "n": 1}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, err := ExtractJSON("nothing here"); err == nil {
		t.Error("expected error for response without JSON")
	}
}
