package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/config"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/prompts"
)

// DefaultGeminiBaseURL is the Generative Language API root.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider generates records through the generateContent API. The API
// key travels in the key query parameter.
type GeminiProvider struct {
	generator
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiProvider creates a provider for the configured model. BaseURL
// overrides DefaultGeminiBaseURL.
func NewGeminiProvider(cfg config.AIConfig, builder prompts.Builder, logger *zap.Logger) (*GeminiProvider, error) {
	name := string(config.ProviderGemini)
	if cfg.Model == "" {
		return nil, NewError(ErrorTypeConfig, name, "model is required", nil)
	}
	if cfg.APIKey == "" {
		return nil, NewError(ErrorTypeConfig, name, "api key is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := DefaultGeminiBaseURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &GeminiProvider{
		generator: generator{
			name:    name,
			model:   cfg.Model,
			builder: builder,
			logger:  logger.Named("gemini"),
		},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

func (p *GeminiProvider) provider() {}

// GenerateFakeData implements Provider.
func (p *GeminiProvider) GenerateFakeData(ctx context.Context, table string, fields []models.FieldConstraint, count int) ([]models.Record, error) {
	return p.generate(ctx, table, fields, count, p.complete)
}

func (p *GeminiProvider) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(p.model), url.QueryEscape(p.apiKey))
}

func (p *GeminiProvider) complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemMessage}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     Temperature,
			MaxOutputTokens: MaxTokens,
		},
	})
	if err != nil {
		return "", p.newError(ErrorTypeTransport, 0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", p.newError(ErrorTypeTransport, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", p.newError(ErrorTypeTransport, 0, "request to Gemini API failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.newError(ErrorTypeTransport, resp.StatusCode, "read response body", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", p.newError(ErrorTypeTransport, resp.StatusCode, "invalid response from Gemini API: empty body", nil)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", p.newError(ErrorTypeProvider, resp.StatusCode, "unexpected response from Gemini API", err)
		}
		return "", p.newError(ErrorTypeTransport, resp.StatusCode, "invalid response from Gemini API", err)
	}

	if len(parsed.Candidates) > 0 && len(parsed.Candidates[0].Content.Parts) > 0 {
		if text := parsed.Candidates[0].Content.Parts[0].Text; text != "" {
			return text, nil
		}
	}

	if parsed.Error != nil {
		message := parsed.Error.Message
		if message == "" {
			message = parsed.Error.Status
		}
		if message == "" {
			message = "Gemini API returned an error"
		}
		return "", p.newError(ErrorTypeProvider, resp.StatusCode, message, nil)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", p.newError(ErrorTypeProvider, resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}
	return "", p.newError(ErrorTypeContent, resp.StatusCode, "no content returned from Gemini API", nil)
}

func (p *GeminiProvider) newError(errType ErrorType, status int, message string, cause error) *Error {
	return &Error{
		Type:       errType,
		Provider:   p.name,
		Model:      p.model,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}
