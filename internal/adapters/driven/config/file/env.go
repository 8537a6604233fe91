package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Environment variables recognised by StudyMate.
const (
	EnvHome         = "STUDYMATE_HOME"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// HomeDir returns the StudyMate home directory.
// STUDYMATE_HOME overrides the default of ~/.studymate.
func HomeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".studymate"), nil
}

// LoadEnv reads .env files into the process environment. Variables already
// set win, and missing files are skipped. Paths are tried in order, so an
// earlier file takes precedence over a later one.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// DefaultEnvFiles returns ./.env followed by <home>/.env.
func DefaultEnvFiles() []string {
	files := []string{".env"}
	if home, err := HomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".env"))
	}
	return files
}

// APIKeyFromEnv returns the API key for provider from its environment variable.
func APIKeyFromEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderGemini:
		return os.Getenv(EnvGeminiKey)
	case domain.AIProviderOpenAI:
		return os.Getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// OllamaHostFromEnv returns OLLAMA_HOST with a scheme, or "" when unset.
func OllamaHostFromEnv() string {
	host := os.Getenv(EnvOllamaHost)
	if host == "" {
		return ""
	}
	if len(host) < 7 || (host[:7] != "http://" && (len(host) < 8 || host[:8] != "https://")) {
		host = "http://" + host
	}
	return host
}

// Environment reads overrides from process environment variables.
type Environment struct{}

// Ensure Environment implements the interface.
var _ driven.Environment = Environment{}

// APIKey returns the provider's API key variable.
func (Environment) APIKey(provider domain.AIProvider) string {
	return APIKeyFromEnv(provider)
}

// OllamaHost returns OLLAMA_HOST normalised to a URL.
func (Environment) OllamaHost() string {
	return OllamaHostFromEnv()
}
