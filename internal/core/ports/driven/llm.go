package driven

import (
	"context"
	"fmt"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// LLMService generates text with a language model.
// This is an optional service - when nil, ask returns the retrieved context only.
//
// Implementations may include:
//   - Gemini (gemini-1.5-flash)
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
//
// Failures are classified with domain.ErrTransient, domain.ErrRateLimited,
// domain.ErrContentFiltered or domain.ErrMalformedInput.
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Generation limits.
const (
	MaxTemperature     = 2.0
	MaxOutputTokens    = 8192
	MaxStopSequences   = 4
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// GenerateOptions configures text generation behaviour.
// These are the only options passed to providers.
type GenerateOptions struct {
	// Temperature controls randomness (0.0 = deterministic, 2.0 = most varied).
	Temperature float64

	// MaxOutputTokens caps the generated length. Zero selects DefaultMaxTokens.
	MaxOutputTokens int

	// StopSequences stop generation when encountered.
	StopSequences []string
}

// DefaultGenerateOptions returns the options used for free-form generation.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxTokens,
	}
}

// WithDefaults fills unset fields.
func (o GenerateOptions) WithDefaults() GenerateOptions {
	if o.MaxOutputTokens == 0 {
		o.MaxOutputTokens = DefaultMaxTokens
	}
	return o
}

// Validate rejects options no provider accepts.
func (o GenerateOptions) Validate() error {
	if o.Temperature < 0 || o.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f outside [0, %.1f]",
			domain.ErrInvalidConfiguration, o.Temperature, MaxTemperature)
	}
	if o.MaxOutputTokens < 0 || o.MaxOutputTokens > MaxOutputTokens {
		return fmt.Errorf("%w: max output tokens %d outside [1, %d]",
			domain.ErrInvalidConfiguration, o.MaxOutputTokens, MaxOutputTokens)
	}
	if len(o.StopSequences) > MaxStopSequences {
		return fmt.Errorf("%w: at most %d stop sequences", domain.ErrInvalidConfiguration, MaxStopSequences)
	}
	return nil
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}
