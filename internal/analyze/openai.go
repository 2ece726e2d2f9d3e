package analyze

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// TextGenerator issues one text-generation call against a model.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// OpenAIConfig configures the chat-completion client.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// OpenAIGenerator implements TextGenerator on the OpenAI-compatible
// chat-completion API.
type OpenAIGenerator struct {
	client    *openai.Client
	maxTokens int
}

// NewOpenAIGenerator builds a generator; BaseURL may point at any
// OpenAI-compatible provider.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientCfg),
		maxTokens: maxTokens,
	}
}

// Generate sends the prompt to the given model with a structured-output
// hint. The hint is advisory; the provider is not trusted to honor it.
func (g *OpenAIGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens.
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = g.maxTokens
	} else {
		req.MaxTokens = g.maxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// IsTransient reports whether a generation error is expected to resolve on
// retry: an explicit service-unavailable condition or a client-side
// timeout. Everything else is treated as permanent for the current model.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusServiceUnavailable {
			return true
		}
		if code, ok := apiErr.Code.(string); ok && strings.EqualFold(code, "UNAVAILABLE") {
			return true
		}
		return false
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	return false
}
