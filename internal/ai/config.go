package ai

// Config holds provider configuration. API credentials are opaque to
// this package; the caller supplies them at construction.
type Config struct {
	// DefaultProvider is used when a request does not name one.
	// Values: "gpt", "gemini".
	DefaultProvider string

	OpenAI OpenAIConfig
	Gemini GeminiConfig
}

// OpenAIConfig holds GPT-provider configuration.
type OpenAIConfig struct {
	APIKey string
	// Model is the primary candidate. It is tried first, ahead of
	// Fallbacks.
	Model string
	// Fallbacks is the ordered fallback chain tried after Model.
	Fallbacks []string
	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string
}

// GeminiConfig holds Gemini-provider configuration.
type GeminiConfig struct {
	APIKey    string
	Model     string
	Fallbacks []string
}

// DefaultConfig returns a Config with the default model chains. The
// chains are configuration data, not fixed logic; deployments override
// them as vendors rotate model lineups.
func DefaultConfig() Config {
	return Config{
		DefaultProvider: "gpt",
		OpenAI: OpenAIConfig{
			Model:     "gpt-5",
			Fallbacks: []string{"gpt-5", "gpt-4.1", "gpt-4o", "gpt-4o-mini"},
		},
		Gemini: GeminiConfig{
			Model:     "gemini-1.5-pro",
			Fallbacks: []string{"gemini-1.5-flash"},
		},
	}
}

// Candidates returns the ordered, deduplicated model chain: the
// configured primary first, then the fallbacks.
func (c OpenAIConfig) Candidates() []string {
	return candidateChain(c.Model, c.Fallbacks)
}

// Candidates returns the ordered, deduplicated model chain.
func (c GeminiConfig) Candidates() []string {
	return candidateChain(c.Model, c.Fallbacks)
}

func candidateChain(primary string, fallbacks []string) []string {
	seen := make(map[string]bool, len(fallbacks)+1)
	var chain []string
	for _, m := range append([]string{primary}, fallbacks...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		chain = append(chain, m)
	}
	return chain
}
