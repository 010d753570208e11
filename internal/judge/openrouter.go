// Package judge provides external judging capabilities: an OpenRouter-backed
// chat-completion client and a best-effort Redis response cache. OpenRouter
// speaks the OpenAI chat-completions protocol, so the client is built on the
// go-openai SDK with a custom base URL.
package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the OpenRouter chat-completions endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Low temperature and a bounded completion keep judge output stable and
// parseable.
const (
	judgeTemperature = 0.1
	judgeMaxTokens   = 2000
)

const systemPrompt = "You are an expert code reviewer evaluating AI agent solutions. " +
	"Always respond with valid JSON."

// ErrNoAPIKey indicates the client was constructed without credentials.
var ErrNoAPIKey = errors.New("openrouter api key is required")

// ErrEmptyResponse indicates the judge returned no choices.
var ErrEmptyResponse = errors.New("judge returned no choices")

// OpenRouter is a judge backed by the OpenRouter chat-completions API.
// The API key is an explicit constructor argument: there is no ambient
// process-wide secret cache.
type OpenRouter struct {
	client *openai.Client
	logger *slog.Logger
}

// NewOpenRouter creates an OpenRouter judge. baseURL may be empty to use the
// public endpoint.
func NewOpenRouter(apiKey, baseURL string, logger *slog.Logger) (*OpenRouter, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenRouter{
		client: openai.NewClientWithConfig(cfg),
		logger: logger.With("component", "openrouter"),
	}, nil
}

// Ask sends the evaluation prompt to the given model and returns the raw
// completion text. Context cancellation and deadlines propagate to the HTTP
// call; the caller bounds the overall duration.
func (o *OpenRouter) Ask(ctx context.Context, prompt, model string) (string, error) {
	o.logger.Debug("asking judge", "model", model, "prompt_bytes", len(prompt))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: judgeTemperature,
		MaxTokens:   judgeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	o.logger.Debug("judge responded", "model", model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
