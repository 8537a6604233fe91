package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_output_tokens"
	keyLLMTimeout      = "llm.timeout_seconds"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyRetrievalK      = "retrieval.k"
	keyMaxContextChars = "retrieval.max_context_chars"
	keyDedupeThreshold = "retrieval.dedupe_threshold"
	keyIngestWorkers   = "ingest.workers"
	keyIngestAttempts  = "ingest.max_attempts"
	keyIngestRPS       = "ingest.requests_per_second"
	keyIngestMaxDocMB  = "ingest.max_document_mb"
	keyStoreCollection = "store.collection"
	keyStoreDataDir    = "store.data_dir"
)

const defaultOllamaBaseURL = "http://localhost:11434"

type settingKind int

const (
	kindString settingKind = iota
	kindSecret
	kindProvider
	kindInt
	kindFloat
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindSecret,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindSecret,
	keyLLMTemperature:  kindFloat,
	keyLLMMaxTokens:    kindInt,
	keyLLMTimeout:      kindInt,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyRetrievalK:      kindInt,
	keyMaxContextChars: kindInt,
	keyDedupeThreshold: kindFloat,
	keyIngestWorkers:   kindInt,
	keyIngestAttempts:  kindInt,
	keyIngestRPS:       kindFloat,
	keyIngestMaxDocMB:  kindInt,
	keyStoreCollection: kindString,
	keyStoreDataDir:    kindString,
}

// SettingsService maps config keys onto domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	env         driven.Environment
}

// NewSettingsService creates a new settings service.
// The aiValidator and env parameters are optional (can be nil).
func NewSettingsService(
	configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, env driven.Environment,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		env:         env,
	}
}

// Get retrieves current application settings. Unset keys take defaults and
// environment API keys win over the file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: embedProvider,
			Model:    s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:  s.baseURL(keyEmbedBaseURL, embedProvider),
			APIKey:   s.apiKey(keyEmbedAPIKey, embedProvider),
		},
		LLM: domain.LLMSettings{
			Provider:        llmProvider,
			Model:           s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:         s.baseURL(keyLLMBaseURL, llmProvider),
			APIKey:          s.apiKey(keyLLMAPIKey, llmProvider),
			Temperature:     s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxOutputTokens: s.getInt(keyLLMMaxTokens, defaults.LLM.MaxOutputTokens),
			Timeout:         time.Duration(s.getInt(keyLLMTimeout, int(defaults.LLM.Timeout/time.Second))) * time.Second,
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			K:               s.getInt(keyRetrievalK, defaults.Retrieval.K),
			MaxContextChars: s.getInt(keyMaxContextChars, defaults.Retrieval.MaxContextChars),
			DedupeThreshold: s.getFloat(keyDedupeThreshold, defaults.Retrieval.DedupeThreshold),
		},
		Ingest: domain.IngestSettings{
			Workers:           s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
			MaxAttempts:       s.getInt(keyIngestAttempts, defaults.Ingest.MaxAttempts),
			RequestsPerSecond: s.getFloat(keyIngestRPS, defaults.Ingest.RequestsPerSecond),
			MaxDocumentBytes:  int64(s.getInt(keyIngestMaxDocMB, int(defaults.Ingest.MaxDocumentBytes>>20))) << 20,
		},
		Store: domain.StoreSettings{
			Collection: domain.CollectionName(s.getString(keyStoreCollection, defaults.Store.Collection)),
			DataDir:    s.configStore.GetString(keyStoreDataDir),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so
// keys supplied through the environment never land in the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	type entry struct {
		key   string
		value any
	}
	values := []entry{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxOutputTokens},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalK, settings.Retrieval.K},
		{keyMaxContextChars, settings.Retrieval.MaxContextChars},
		{keyDedupeThreshold, settings.Retrieval.DedupeThreshold},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyIngestAttempts, settings.Ingest.MaxAttempts},
		{keyIngestRPS, settings.Ingest.RequestsPerSecond},
		{keyIngestMaxDocMB, int(settings.Ingest.MaxDocumentBytes >> 20)},
		{keyStoreCollection, settings.Store.Collection},
		{keyStoreDataDir, settings.Store.DataDir},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, entry{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, entry{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates one key from its string form. An empty value resets the key
// to its default. A value that makes the settings invalid is rolled back.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (see 'studymate settings show')", domain.ErrInvalidInput, key)
	}

	previous, hadPrevious := s.configStore.Get(key)

	value = strings.TrimSpace(value)
	if value == "" {
		if err := s.configStore.Delete(key); err != nil {
			return fmt.Errorf("reset %s: %w", key, err)
		}
		return nil
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.Validate(); err != nil {
		if hadPrevious {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Delete(key)
		}
		return err
	}
	return nil
}

func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", value)
		}
		return f, nil
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return p.String(), nil
	default:
		return value, nil
	}
}

// Keys lists the recognised config keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key holds a credential that should be masked.
func (s *SettingsService) IsSecret(key string) bool {
	return settingKinds[key] == kindSecret
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// CheckProviders pings the configured embedding and LLM providers.
func (s *SettingsService) CheckProviders(ctx context.Context) (embedErr, llmErr error) {
	if s.aiValidator == nil {
		return nil, nil
	}
	settings, err := s.Get()
	if err != nil {
		return err, err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding),
		s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt and getFloat treat a stored zero as set, so "0" is a real value.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if s.env != nil {
		if v := s.env.APIKey(provider); v != "" {
			return v
		}
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) baseURL(key string, provider domain.AIProvider) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	if provider != domain.AIProviderOllama {
		return ""
	}
	if s.env != nil {
		if v := s.env.OllamaHost(); v != "" {
			return v
		}
	}
	return defaultOllamaBaseURL
}
