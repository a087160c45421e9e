package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// Client is a thin facade over the configured provider.
type Client struct {
	provider Provider
	logger   *zap.Logger
}

// NewClient creates a client for the provider named in cfg.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	p, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewClientWithProvider(p, logger), nil
}

// NewClientWithProvider wraps an existing provider.
func NewClientWithProvider(p Provider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: p,
		logger:   logger.Named("llm"),
	}
}

// Provider returns the wrapped provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// FakeData generates count records for table. A count below one asks for a
// single record.
func (c *Client) FakeData(ctx context.Context, table string, fields []models.FieldConstraint, count int) ([]models.Record, error) {
	if count < 1 {
		count = 1
	}
	records, err := c.provider.GenerateFakeData(ctx, table, fields, count)
	if err != nil {
		return nil, fmt.Errorf("generate %s data with %s: %w", table, c.provider.Name(), err)
	}
	return records, nil
}
