package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/prompts"
)

// NewProvider creates the provider selected by cfg.AI.Provider. Unknown
// providers fail here, before any request is made.
func NewProvider(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	builder := prompts.NewBuilder(cfg.Generation)

	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.AI, builder, logger)
	case config.ProviderGemini:
		return NewGeminiProvider(cfg.AI, builder, logger)
	default:
		return nil, &Error{
			Type:     ErrorTypeConfig,
			Provider: string(cfg.AI.Provider),
			Message:  fmt.Sprintf("unsupported provider %q (supported: %s, %s)", cfg.AI.Provider, config.ProviderOpenAI, config.ProviderGemini),
			Cause:    apperrors.ErrUnsupportedProvider,
		}
	}
}
