package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// AIConfigValidator checks that configured AI providers are reachable.
type AIConfigValidator interface {
	// ValidateEmbedding builds the embedding provider and pings it.
	// Unconfigured settings are not an error.
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ValidateLLM builds the LLM provider and pings it.
	// Unconfigured settings are not an error.
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}
