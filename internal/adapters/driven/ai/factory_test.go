package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/adapters/driven/embedding/resilient"
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// ollamaServer answers /api/tags so Ping succeeds.
func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	assert.NotPanics(t, result.Close)
}

func TestCreateEmbeddingService(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "gemini without key is not configured", settings: &domain.EmbeddingSettings{
			Provider: domain.AIProviderGemini,
		}, wantNil: true},
		{name: "ollama", settings: &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: "http://localhost:11434", Model: "nomic-embed-text",
		}},
		{name: "openai", settings: &domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small",
		}},
		{name: "anthropic has no embeddings", settings: &domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic, APIKey: "k",
		}, wantNil: true, wantErr: true},
		{name: "unknown provider", settings: &domain.EmbeddingSettings{
			Provider: "unknown", APIKey: "k",
		}, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(ctx, tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			_ = svc.Close()
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, Model: "mxbai-embed-large",
	})
	require.NoError(t, err)
	assert.Equal(t, 1024, svc.Dimensions())
	assert.Equal(t, "mxbai-embed-large", svc.ModelName())
}

func TestCreateLLMService(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "openai without key", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}},
		{name: "anthropic", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(ctx, tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			_ = svc.Close()
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusOK)
		svc, err := CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: srv.URL, Model: "nomic-embed-text",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		_ = svc.Close()
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusInternalServerError)
		svc, err := CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: srv.URL,
		})
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	srv := ollamaServer(t, http.StatusServiceUnavailable)
	svc, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama, BaseURL: srv.URL,
	})
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestInitialise(t *testing.T) {
	ctx := context.Background()
	srv := ollamaServer(t, http.StatusOK)

	t.Run("wraps embedder and builds llm", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL, Model: "nomic-embed-text"}
		settings.LLM.Provider = domain.AIProviderOllama
		settings.LLM.BaseURL = srv.URL

		result, err := Initialise(ctx, &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.IsType(t, &resilient.EmbeddingService{}, result.EmbeddingService)
		assert.NotNil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})

	t.Run("missing llm is a warning", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
		settings.LLM.Provider = domain.AIProviderOpenAI

		result, err := Initialise(ctx, &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.Nil(t, result.LLMService)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("missing embedder is fatal", func(t *testing.T) {
		settings := domain.DefaultAppSettings()

		_, err := Initialise(ctx, &settings)
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	})
}
