// Package llm talks to the AI providers that generate fake records.
package llm

import (
	"context"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// Provider generates records for a table from its field constraints.
// The set of implementations is closed: OpenAIProvider, GeminiProvider and
// MockProvider.
type Provider interface {
	// GenerateFakeData asks for count records. The count is advisory; the
	// provider may return more or fewer.
	GenerateFakeData(ctx context.Context, table string, fields []models.FieldConstraint, count int) ([]models.Record, error)

	// Name returns the provider identifier ("openai", "gemini").
	Name() string

	// Model returns the configured model name.
	Model() string

	provider()
}

var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*GeminiProvider)(nil)
	_ Provider = (*MockProvider)(nil)
)
