package driving

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its config key, e.g. "chunking.size".
	Set(key, value string) error

	// Keys lists the recognised config keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// IsSecret reports whether a key holds a credential.
	IsSecret(key string) bool

	// Validate checks the current settings.
	Validate() error

	// CheckProviders pings the configured embedding and LLM providers.
	CheckProviders(ctx context.Context) (embedErr, llmErr error)
}
