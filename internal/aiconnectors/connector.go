package aiconnectors

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider represents an AI provider type
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderCohere Provider = "cohere"
	ProviderOllama Provider = "ollama"
)

// ModelConfig contains the configuration for a specific model
type ModelConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	Model       string  `json:"model,omitempty"`
}

// ConnectorOptions contains options for creating a connector
type ConnectorOptions struct {
	Provider    Provider    `json:"provider"`
	APIKey      string      `json:"api_key"`
	BaseURL     string      `json:"base_url,omitempty"`
	ModelConfig ModelConfig `json:"model_config,omitempty"`
}

// Connector wraps an llms.Model for one configured provider.
type Connector struct {
	provider Provider
	llm      llms.Model
	options  ConnectorOptions
}

// NewConnector creates a new connector for the specified provider
func NewConnector(ctx context.Context, options ConnectorOptions) (*Connector, error) {
	var model llms.Model
	var err error

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.ModelConfig.Model).
		Float64("temperature", options.ModelConfig.Temperature).
		Msg("Creating new connector")

	switch options.Provider {
	case ProviderOpenAI:
		model, err = createOpenAIModel(ctx, options)
	case ProviderGemini:
		model, err = createGeminiModel(ctx, options)
	case ProviderClaude:
		model, err = createAnthropicModel(ctx, options)
	case ProviderCohere:
		model, err = createCohereModel(ctx, options)
	case ProviderOllama:
		model, err = createOllamaModel(ctx, options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &Connector{
		provider: options.Provider,
		llm:      model,
		options:  options,
	}, nil
}

func createOpenAIModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(options.ModelConfig.Model),
		openai.WithToken(options.APIKey),
	}

	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}

	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
		googleai.WithDefaultModel(options.ModelConfig.Model),
	}

	return googleai.New(ctx, opts...)
}

func createAnthropicModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(options.APIKey),
		anthropic.WithModel(options.ModelConfig.Model),
	}

	return anthropic.New(opts...)
}

func createCohereModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []cohere.Option{
		cohere.WithToken(options.APIKey),
		cohere.WithModel(options.ModelConfig.Model),
	}

	if options.BaseURL != "" {
		opts = append(opts, cohere.WithBaseURL(options.BaseURL))
	}

	return cohere.New(opts...)
}

func createOllamaModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	if options.BaseURL == "" {
		options.BaseURL = "http://localhost:11434"
	}

	opts := []ollama.Option{
		ollama.WithServerURL(options.BaseURL),
		ollama.WithModel(options.ModelConfig.Model),
	}

	// Ollama has no constructor options for temperature or token limits;
	// those travel as llms.CallOption at call time.

	return ollama.New(opts...)
}

// LLM returns the underlying langchaingo model.
func (c *Connector) LLM() llms.Model {
	return c.llm
}

// CallOptions returns the default call options derived from the model
// configuration. Callers append their own on top.
func (c *Connector) CallOptions() []llms.CallOption {
	callOptions := []llms.CallOption{
		llms.WithTemperature(c.options.ModelConfig.Temperature),
	}

	if c.options.ModelConfig.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(c.options.ModelConfig.MaxTokens))
	}

	if c.options.ModelConfig.TopP > 0 {
		callOptions = append(callOptions, llms.WithTopP(c.options.ModelConfig.TopP))
	}

	return callOptions
}

// Call calls the LLM with a single prompt and returns the response text.
func (c *Connector) Call(ctx context.Context, input string, options ...llms.CallOption) (string, error) {
	callOptions := append(c.CallOptions(), options...)
	return llms.GenerateFromSinglePrompt(ctx, c.llm, input, callOptions...)
}

// GetProvider returns the provider of this connector
func (c *Connector) GetProvider() Provider {
	return c.provider
}

// GetModel returns the model name from the config
func (c *Connector) GetModel() string {
	return c.options.ModelConfig.Model
}
