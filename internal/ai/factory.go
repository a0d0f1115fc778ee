package ai

import (
	"context"
	"strings"
)

// SupportedProviders returns the names the factory accepts.
func SupportedProviders() []string {
	return []string{"gpt", "gemini"}
}

// NewProvider creates a Provider by name. The name is case-insensitive
// and whitespace-trimmed; an empty name selects cfg.DefaultProvider.
// Providers are constructed per call and hold no shared mutable state.
func NewProvider(ctx context.Context, name string, cfg Config) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	}

	switch name {
	case "gpt":
		return NewGPTProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	default:
		return nil, &UnsupportedProviderError{Name: name}
	}
}
