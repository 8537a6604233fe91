package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Temperature is used for grounded answers.
	Temperature float64

	// MaxOutputTokens caps the generated answer length.
	MaxOutputTokens int

	// Timeout bounds a single generation request.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// RetrievalSettings configures retrieval and context assembly.
type RetrievalSettings struct {
	// K is the default number of chunks retrieved per question.
	K int

	// MaxContextChars bounds the assembled context block.
	MaxContextChars int

	// DedupeThreshold is the cosine similarity above which two
	// retrieved chunks count as duplicates.
	DedupeThreshold float64
}

// IngestSettings configures embedding during ingestion.
type IngestSettings struct {
	// Workers is the number of chunks embedded concurrently.
	Workers int

	// MaxAttempts caps embedding attempts per chunk, including the first.
	MaxAttempts int

	// RequestsPerSecond limits calls to the embedding service.
	RequestsPerSecond float64

	// MaxDocumentBytes rejects larger uploads.
	MaxDocumentBytes int64
}

// StoreSettings configures vector persistence.
type StoreSettings struct {
	// Collection is the default collection name.
	Collection string

	// DataDir is where the database lives. Empty selects ~/.studymate/data.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
	Store     StoreSettings
}

// CollectionPrefix namespaces StudyMate collections.
const CollectionPrefix = "studymate_"

// CollectionName returns the prefixed collection name for a user supplied name.
func CollectionName(name string) string {
	if name == "" {
		name = "default"
	}
	if len(name) >= len(CollectionPrefix) && name[:len(CollectionPrefix)] == CollectionPrefix {
		return name
	}
	return CollectionPrefix + name
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured until a key or base URL is supplied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderGemini,
			Model:    DefaultEmbeddingModels()[AIProviderGemini],
		},
		LLM: LLMSettings{
			Provider:        AIProviderGemini,
			Model:           DefaultLLMModels()[AIProviderGemini],
			Temperature:     0.3,
			MaxOutputTokens: 1024,
			Timeout:         60 * time.Second,
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			K:               5,
			MaxContextChars: 6000,
			DedupeThreshold: 0.95,
		},
		Ingest: IngestSettings{
			Workers:           4,
			MaxAttempts:       3,
			RequestsPerSecond: 5,
			MaxDocumentBytes:  10 << 20,
		},
		Store: StoreSettings{
			Collection: CollectionName("default"),
		},
	}
}

// Validate checks the settings that would make the pipeline misbehave.
func (s AppSettings) Validate() error {
	switch {
	case s.Chunking.Size <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfiguration, s.Chunking.Size)
	case s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size:
		return fmt.Errorf("%w: overlap %d must be in [0, %d)",
			ErrInvalidConfiguration, s.Chunking.Overlap, s.Chunking.Size)
	case s.Retrieval.K <= 0:
		return fmt.Errorf("%w: retrieval k must be positive", ErrInvalidConfiguration)
	case s.Retrieval.MaxContextChars <= 0:
		return fmt.Errorf("%w: max context chars must be positive", ErrInvalidConfiguration)
	case s.Retrieval.DedupeThreshold <= 0 || s.Retrieval.DedupeThreshold > 1:
		return fmt.Errorf("%w: dedupe threshold must be in (0, 1]", ErrInvalidConfiguration)
	case s.Ingest.Workers <= 0:
		return fmt.Errorf("%w: ingest workers must be positive", ErrInvalidConfiguration)
	case s.Ingest.MaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidConfiguration)
	case s.Ingest.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: requests per second must be positive", ErrInvalidConfiguration)
	}
	if s.Embedding.Provider != "" && !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: %s does not provide embeddings", ErrInvalidConfiguration, s.Embedding.Provider)
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfiguration, s.LLM.Provider)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-1.5-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"embedding-001":        768,
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
