package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/prompts"
)

// OpenAIProvider generates records through the chat completions API.
type OpenAIProvider struct {
	generator
	client *openai.Client
}

// NewOpenAIProvider creates a provider for the configured model. BaseURL
// overrides the default https://api.openai.com/v1 endpoint, which also
// allows OpenAI-compatible servers.
func NewOpenAIProvider(cfg config.AIConfig, builder prompts.Builder, logger *zap.Logger) (*OpenAIProvider, error) {
	name := string(config.ProviderOpenAI)
	if cfg.Model == "" {
		return nil, NewError(ErrorTypeConfig, name, "model is required", nil)
	}
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, NewError(ErrorTypeConfig, name, "api key is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	return &OpenAIProvider{
		generator: generator{
			name:    name,
			model:   cfg.Model,
			builder: builder,
			logger:  logger.Named("openai"),
		},
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (p *OpenAIProvider) provider() {}

// GenerateFakeData implements Provider.
func (p *OpenAIProvider) GenerateFakeData(ctx context.Context, table string, fields []models.FieldConstraint, count int) ([]models.Record, error) {
	return p.generate(ctx, table, fields, count, p.complete)
}

func (p *OpenAIProvider) complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", p.classifyError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{
			Type:     ErrorTypeContent,
			Provider: p.name,
			Model:    p.model,
			Message:  "no content returned from OpenAI API",
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyError maps go-openai errors onto the provider error types.
func (p *OpenAIProvider) classifyError(err error) *Error {
	llmErr := &Error{Provider: p.name, Model: p.model, Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		llmErr.Type = ErrorTypeProvider
		llmErr.StatusCode = apiErr.HTTPStatusCode
		llmErr.Message = apiErr.Message
		if llmErr.Message == "" {
			llmErr.Message = "unknown OpenAI API error"
		}
	case errors.As(err, &reqErr):
		llmErr.StatusCode = reqErr.HTTPStatusCode
		if len(reqErr.Body) == 0 {
			llmErr.Type = ErrorTypeTransport
			llmErr.Message = "invalid response from OpenAI API: empty body"
		} else {
			llmErr.Type = ErrorTypeProvider
			llmErr.Message = "unexpected response from OpenAI API"
		}
	default:
		llmErr.Type = ErrorTypeTransport
		llmErr.Message = "request to OpenAI API failed"
	}
	return llmErr
}
