package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

func seedStore(t *testing.T, embedder *bagEmbedder, texts ...string) driven.VectorStore {
	t.Helper()
	ctx := context.Background()

	store, err := memory.NewStore().VectorStores().Open(ctx, "studymate_test", embedder.Dimensions())
	require.NoError(t, err)

	for i, text := range texts {
		v, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, domain.VectorRecord{
			DocumentID:   "doc",
			DocumentName: "notes.txt",
			ChunkID:      domain.ChunkID("doc", i),
			Position:     i,
			PageStart:    i + 1,
			PageEnd:      i + 1,
			Text:         text,
			Vector:       v,
			Model:        embedder.ModelName(),
			Version:      "v1",
		}))
	}
	require.NoError(t, store.Activate(ctx, "doc", "v1", len(texts)))
	return store
}

func TestNewRetriever(t *testing.T) {
	_, err := NewRetriever(nil, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	r, err := NewRetriever(newBagEmbedder(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultK, r.defaultK)

	r, err = NewRetriever(newBagEmbedder(), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxK, r.defaultK)
}

func TestRetrieve_Ranking(t *testing.T) {
	embedder := newBagEmbedder()
	store := seedStore(t, embedder,
		"Mitosis divides one cell into two.",
		"Photosynthesis happens in chloroplasts using light.",
		"The Treaty of Versailles ended the war.",
	)
	r, err := NewRetriever(embedder, 0, 0)
	require.NoError(t, err)

	result, err := r.Retrieve(context.Background(), store, domain.Query{Text: "Where does photosynthesis happen?", K: 2})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 2)

	top := result.Chunks[0]
	assert.Equal(t, "doc:1", top.ChunkID)
	assert.Equal(t, 2, top.PageStart)
	assert.Equal(t, "notes.txt", top.DocumentName)
	assert.NotEmpty(t, top.Vector)
	assert.GreaterOrEqual(t, top.Score, result.Chunks[1].Score)
}

func TestRetrieve_ClampsK(t *testing.T) {
	embedder := newBagEmbedder()
	texts := make([]string, MaxK+5)
	for i := range texts {
		texts[i] = "cell biology note"
	}
	store := seedStore(t, embedder, texts...)
	r, err := NewRetriever(embedder, 3, 0)
	require.NoError(t, err)

	result, err := r.Retrieve(context.Background(), store, domain.Query{Text: "cell"})
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 3)

	result, err = r.Retrieve(context.Background(), store, domain.Query{Text: "cell", K: 100})
	require.NoError(t, err)
	assert.Len(t, result.Chunks, MaxK)
}

func TestRetrieve_CachesQueryEmbedding(t *testing.T) {
	embedder := newBagEmbedder()
	store := seedStore(t, embedder, "Chlorophyll absorbs light.")
	seeded := embedder.calls.Load()

	r, err := NewRetriever(embedder, 0, 0)
	require.NoError(t, err)

	for range 3 {
		_, err := r.Retrieve(context.Background(), store, domain.Query{Text: "chlorophyll"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, embedder.calls.Load()-seeded)

	_, err = r.Retrieve(context.Background(), store, domain.Query{Text: "light"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, embedder.calls.Load()-seeded)
}

func TestRetrieve_SkipsOtherModels(t *testing.T) {
	embedder := newBagEmbedder()
	store := seedStore(t, embedder, "Chlorophyll absorbs light.")

	other := newBagEmbedder()
	other.model = "another-model"
	r, err := NewRetriever(other, 0, 0)
	require.NoError(t, err)

	result, err := r.Retrieve(context.Background(), store, domain.Query{Text: "chlorophyll"})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestRetrieve_EmptyStore(t *testing.T) {
	embedder := newBagEmbedder()
	store := seedStore(t, embedder)
	r, err := NewRetriever(embedder, 0, 0)
	require.NoError(t, err)

	result, err := r.Retrieve(context.Background(), store, domain.Query{Text: "anything"})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestRetrieve_Errors(t *testing.T) {
	embedder := newBagEmbedder()
	store := seedStore(t, embedder, "text")
	r, err := NewRetriever(embedder, 0, 0)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), store, domain.Query{Text: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	embedder.failOn = "broken"
	embedder.err = domain.ErrRateLimited
	_, err = r.Retrieve(context.Background(), store, domain.Query{Text: "broken question"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
