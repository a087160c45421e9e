package llm

import (
	"context"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// MockCall records one GenerateFakeData invocation.
type MockCall struct {
	Table  string
	Fields []models.FieldConstraint
	Count  int
}

// MockProvider is a configurable Provider for tests.
// Set the function field to control behavior.
type MockProvider struct {
	// GenerateFakeDataFunc is called when GenerateFakeData is invoked.
	// If nil, Records is returned.
	GenerateFakeDataFunc func(ctx context.Context, table string, fields []models.FieldConstraint, count int) ([]models.Record, error)

	// Records is returned when GenerateFakeDataFunc is nil. Each call gets
	// its own copies.
	Records []models.Record

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Calls tracks invocations for verification.
	Calls []MockCall
}

// NewMockProvider creates a mock that returns records.
func NewMockProvider(records ...models.Record) *MockProvider {
	return &MockProvider{Records: records}
}

func (m *MockProvider) provider() {}

// GenerateFakeData implements Provider.
func (m *MockProvider) GenerateFakeData(ctx context.Context, table string, fields []models.FieldConstraint, count int) ([]models.Record, error) {
	m.Calls = append(m.Calls, MockCall{Table: table, Fields: fields, Count: count})
	if m.GenerateFakeDataFunc != nil {
		return m.GenerateFakeDataFunc(ctx, table, fields, count)
	}
	out := make([]models.Record, len(m.Records))
	for i, r := range m.Records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	return "mock"
}

// Model implements Provider.
func (m *MockProvider) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}
