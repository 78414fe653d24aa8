package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/Kizuruki/historybowlreview/internal/config"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned no text")

// Generator turns a single-turn prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Model() string
}

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, OpenRouter, LiteLLM).
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. An empty baseURL uses the OpenAI API.
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	// Local proxies such as LiteLLM accept any key.
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (g *OpenAIGenerator) Model() string { return g.model }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// GeminiGenerator uses the Google GenAI SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// NewGenerator builds the generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
