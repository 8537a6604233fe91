package services

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Retrieval limits.
const (
	DefaultK         = 5
	MaxK             = 20
	DefaultCacheSize = 256
)

// Retriever embeds a question and ranks the stored chunks against it.
// Query embeddings are cached by model and text, so repeated questions
// cost no embedding calls.
type Retriever struct {
	embedder driven.EmbeddingService
	defaultK int
	cache    *lru.Cache[string, []float32]
}

// NewRetriever creates a retriever. A defaultK outside [1, MaxK] is clamped.
func NewRetriever(embedder driven.EmbeddingService, defaultK, cacheSize int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: retriever requires an embedding service", domain.ErrInvalidConfiguration)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: query cache: %w", domain.ErrInvalidConfiguration, err)
	}
	return &Retriever{
		embedder: embedder,
		defaultK: clampK(defaultK, DefaultK),
		cache:    cache,
	}, nil
}

func clampK(k, fallback int) int {
	if k <= 0 {
		k = fallback
	}
	return min(k, MaxK)
}

// Retrieve returns up to K chunks of the store most similar to the query.
// An empty store is an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, store driven.VectorStore, q domain.Query) (domain.RetrievalResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return domain.RetrievalResult{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	k := clampK(q.K, r.defaultK)
	logger.Debug("Retrieving k=%d from %s (document filter %q)", k, store.Name(), q.DocumentID)

	vector, err := r.embedQuery(ctx, text)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	hits, err := store.Query(ctx, vector, driven.QueryOptions{
		K:          k,
		DocumentID: q.DocumentID,
		Model:      r.embedder.ModelName(),
	})
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("query vectors: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		chunks = append(chunks, domain.RetrievedChunk{
			ChunkID:      h.Record.ChunkID,
			DocumentID:   h.Record.DocumentID,
			DocumentName: h.Record.DocumentName,
			Position:     h.Record.Position,
			PageStart:    h.Record.PageStart,
			PageEnd:      h.Record.PageEnd,
			Text:         h.Record.Text,
			Score:        h.Score,
			Vector:       h.Record.Vector,
		})
	}
	logger.Debug("Retrieved %d chunks", len(chunks))

	return domain.RetrievalResult{Chunks: chunks}, nil
}

func (r *Retriever) embedQuery(ctx context.Context, text string) ([]float32, error) {
	key := r.embedder.ModelName() + "\x00" + text
	if v, ok := r.cache.Get(key); ok {
		logger.Debug("Query embedding cache hit")
		return v, nil
	}

	v, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrEmbeddingUnavailable)
	}
	r.cache.Add(key, v)
	return v, nil
}
