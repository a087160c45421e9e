package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is one generated row keyed by column name. Values are scalars:
// string, int64, float64, bool or nil.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// GenerationStrategy selects how records are produced.
type GenerationStrategy string

const (
	StrategySimple    GenerationStrategy = "simple"
	StrategyRelations GenerationStrategy = "relations"
)

// ValidStrategies contains all valid generation strategies.
var ValidStrategies = []GenerationStrategy{
	StrategySimple,
	StrategyRelations,
}

// IsValid reports whether s is a known strategy.
func (s GenerationStrategy) IsValid() bool {
	for _, v := range ValidStrategies {
		if s == v {
			return true
		}
	}
	return false
}

// GenerationRequest is the transient description of one generation call.
type GenerationRequest struct {
	ID           uuid.UUID          `json:"id"`
	Table        string             `json:"table"`
	Count        int                `json:"count"`
	Strategy     GenerationStrategy `json:"strategy"`
	Fields       []FieldConstraint  `json:"fields"`
	Associations []Association      `json:"associations,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
}

// NewGenerationRequest creates a request with a fresh ID.
func NewGenerationRequest(table string, count int, strategy GenerationStrategy) *GenerationRequest {
	return &GenerationRequest{
		ID:        uuid.New(),
		Table:     table,
		Count:     count,
		Strategy:  strategy,
		StartedAt: time.Now().UTC(),
	}
}
