package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider implements the Provider interface using the OpenAI
// Responses API.
type OpenAIProvider struct {
	logger *logrus.Logger
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. Returns ErrNotConfigured
// when no API key is supplied.
func NewOpenAIProvider(logger *logrus.Logger, apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		logger: logger,
		client: &client,
		model:  model,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate sends the prompt to OpenAI and returns the output text
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	resp, err := p.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           p.model,
		MaxOutputTokens: openai.Int(int64(params.MaxOutputTokens)),
		Temperature:     openai.Float(params.Temperature),
		TopP:            openai.Float(params.TopP),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}

	return strings.TrimSpace(resp.OutputText()), nil
}
