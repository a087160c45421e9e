package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/logging"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/prompts"
)

// Sampling settings sent with every generation request.
const (
	Temperature = 0.8
	MaxTokens   = 2000
)

// completeFunc sends one system message and one user prompt and returns the
// generated text.
type completeFunc func(ctx context.Context, systemMessage, prompt string) (string, error)

// generator holds what every provider shares: prompt rendering and response
// decoding around a provider-specific completion call.
type generator struct {
	name    string
	model   string
	builder prompts.Builder
	logger  *zap.Logger
}

func (g *generator) Name() string  { return g.name }
func (g *generator) Model() string { return g.model }

func (g *generator) generate(ctx context.Context, table string, fields []models.FieldConstraint, count int, complete completeFunc) ([]models.Record, error) {
	prompt := g.builder.Build(table, fields, count)

	g.logger.Debug("Requesting fake data",
		zap.String("table", table),
		zap.Int("count", count),
		zap.Int("fields", len(fields)),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()
	content, err := complete(ctx, prompts.FakeDataSystemMessage, prompt)
	if err != nil {
		g.logger.Error("Fake data request failed",
			zap.String("table", table),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	records, err := ParseRecords(content)
	if err != nil {
		g.logger.Warn("Generated content is not valid JSON",
			zap.String("table", table),
			zap.String("content", logging.TruncateString(content, logging.MaxContentLogLength)))
		return nil, parseError(g.name, g.model, content, err)
	}

	g.logger.Info("Fake data generated",
		zap.String("table", table),
		zap.Int("requested", count),
		zap.Int("received", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}
