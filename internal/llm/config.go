// Package llm provides centralized LLM configuration and client abstractions.
// This package enables switching between text-generation providers without touching callers.
package llm

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
)

// DefaultOpenAIBaseURL is used when an OpenAI config has no base URL.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Model    string
	// BaseURL is only used by the OpenAI-compatible provider.
	BaseURL string
	// UseCallerCredential sends the caller's bearer credential upstream
	// instead of the configured API key (OpenAI-compatible provider only).
	UseCallerCredential bool
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Model:    "gemini-2.5-flash",
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Model:    "gpt-4.1-nano",
		BaseURL:  DefaultOpenAIBaseURL,
	}
}

// DefaultFor returns the default configuration for a provider, or nil if unknown.
func DefaultFor(p Provider) *Config {
	switch p {
	case ProviderGemini:
		return DefaultGeminiConfig()
	case ProviderOpenAI:
		return DefaultOpenAIConfig()
	default:
		return nil
	}
}

// WithModel returns a new Config with a different model name
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	newConfig.Model = model
	return &newConfig
}
