package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

func TestSessionService_CreateGet(t *testing.T) {
	h := newHarness(t, pageChunker{})

	s := h.sessions.Create("biology")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "studymate_biology", s.Collection)
	assert.Equal(t, domain.DefaultMaxTurns, s.MaxTurns)

	got, err := h.sessions.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = h.sessions.Get("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_DestroyKeepsDocuments(t *testing.T) {
	h := newHarness(t, pageChunker{})
	ctx := context.Background()

	res, err := h.study.Ingest(ctx, h.session, driving.IngestRequest{Name: "science.txt", Data: threePages()})
	require.NoError(t, err)

	require.NoError(t, h.sessions.Destroy(ctx, h.session.ID, false))
	_, err = h.sessions.Get(h.session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 3, h.count(t, res.DocumentID))

	assert.ErrorIs(t, h.sessions.Destroy(ctx, h.session.ID, false), domain.ErrNotFound)
}

func TestSessionService_DestroyPurges(t *testing.T) {
	h := newHarness(t, pageChunker{})
	ctx := context.Background()

	kept, err := h.study.Ingest(ctx, h.session, driving.IngestRequest{Name: "science.txt", Data: threePages()})
	require.NoError(t, err)
	removed, err := h.study.Ingest(ctx, h.session, driving.IngestRequest{Name: "gone.txt", Data: []byte("Short note.")})
	require.NoError(t, err)

	// A document removed earlier is skipped rather than failing the purge.
	require.NoError(t, h.study.RemoveDocument(ctx, h.session, removed.DocumentID))
	h.session.TrackDocument(removed.DocumentID)

	require.NoError(t, h.sessions.Destroy(ctx, h.session.ID, true))
	assert.Equal(t, 0, h.count(t, kept.DocumentID))

	other := h.sessions.Create("test")
	sources, err := h.study.ListSources(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestSessionService_HistoryBounded(t *testing.T) {
	h := newHarness(t, pageChunker{})
	sessions := NewSessionService(h.study, 2)
	s := sessions.Create("test")

	for _, q := range []string{"one?", "two?", "three?"} {
		_, err := h.study.Ask(context.Background(), s, driving.AskRequest{Question: q})
		require.NoError(t, err)
	}
	require.Len(t, s.History, 2)
	assert.Equal(t, "two?", s.History[0].Question)
}

func TestCollectionService(t *testing.T) {
	h := newHarness(t, pageChunker{})
	ctx := context.Background()
	svc := NewCollectionService(h.store.VectorStores())

	_, err := h.study.Ingest(ctx, h.session, driving.IngestRequest{Name: "science.txt", Data: threePages()})
	require.NoError(t, err)

	infos, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "studymate_test", infos[0].Name)
	assert.Equal(t, 1, infos[0].Documents)
	assert.Equal(t, 3, infos[0].Records)

	require.NoError(t, svc.Drop(ctx, "test"))
	infos, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	assert.ErrorIs(t, svc.Drop(ctx, "test"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Drop(ctx, ""), domain.ErrInvalidInput)
}
