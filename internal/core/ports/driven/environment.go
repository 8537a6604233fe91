package driven

import "github.com/custodia-labs/studymate/internal/core/domain"

// Environment supplies values that take precedence over the config file.
type Environment interface {
	// APIKey returns the key for provider, or "" when unset.
	APIKey(provider domain.AIProvider) string

	// OllamaHost returns the Ollama base URL, or "" when unset.
	OllamaHost() string
}
