package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the file and ingests it by base name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bio.md")
		require.NoError(t, os.WriteFile(path, []byte("# Cells"), 0o644))

		study := &mockStudyService{ingestResult: &driving.IngestResult{
			DocumentID: "doc-1", Name: "bio.md", Format: domain.FormatMarkdown, Pages: 1, Chunks: 2,
		}}
		server, _, err := newTestServer(study)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Path: path, Format: "markdown"})
		require.NoError(t, err)

		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Equal(t, "markdown", output.Format)
		assert.Equal(t, 2, output.Chunks)
		require.Len(t, study.ingested, 1)
		assert.Equal(t, "bio.md", study.ingested[0].Name)
		assert.Equal(t, []byte("# Cells"), study.ingested[0].Data)
		assert.Equal(t, domain.FormatMarkdown, study.ingested[0].Format)
	})

	t.Run("missing path", func(t *testing.T) {
		server, _, err := newTestServer(&mockStudyService{})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})
		assert.Error(t, err)
	})

	t.Run("unreadable file", func(t *testing.T) {
		study := &mockStudyService{}
		server, _, err := newTestServer(study)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Path: filepath.Join(t.TempDir(), "nope.pdf")})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Empty(t, study.ingested)
	})

	t.Run("ingest failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scan.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

		server, _, err := newTestServer(&mockStudyService{err: domain.ErrExtraction})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Path: path})
		assert.ErrorIs(t, err, domain.ErrExtraction)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the cited answer", func(t *testing.T) {
		study := &mockStudyService{answer: &domain.Answer{
			Text:     "Chlorophyll absorbs light [Source 1].",
			Grounded: true,
			Sources: []domain.Source{
				{Index: 1, Label: "bio.pdf, page 3", DocumentID: "doc-1", PageStart: 3, PageEnd: 3},
			},
		}}
		server, _, err := newTestServer(study)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What absorbs light?", K: 3})
		require.NoError(t, err)

		assert.True(t, output.Grounded)
		assert.Equal(t, "Chlorophyll absorbs light [Source 1].", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "bio.pdf, page 3", output.Sources[0].Label)
		assert.Equal(t, 3, study.asked[0].K)
	})

	t.Run("ungrounded answer carries the disclaimer", func(t *testing.T) {
		study := &mockStudyService{answer: &domain.Answer{
			Text:       "Generally...",
			Disclaimer: domain.UngroundedDisclaimer,
		}}
		server, _, err := newTestServer(study)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.NoError(t, err)
		assert.False(t, output.Grounded)
		assert.Equal(t, domain.UngroundedDisclaimer, output.Disclaimer)
		assert.NotNil(t, output.Sources)
	})

	t.Run("generation failure asks to retry", func(t *testing.T) {
		server, _, err := newTestServer(&mockStudyService{err: domain.ErrGenerationUnavailable})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		assert.Contains(t, err.Error(), "try again")
	})

	t.Run("questions share the server session", func(t *testing.T) {
		study := &mockStudyService{answer: &domain.Answer{}}
		server, _, err := newTestServer(study)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "one"})
		require.NoError(t, err)
		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "two"})
		require.NoError(t, err)

		require.Len(t, study.sessions, 2)
		assert.Same(t, study.sessions[0], study.sessions[1])
	})
}

func TestServer_ConcurrentCallsShareSession(t *testing.T) {
	ctx := context.Background()
	study := &mockStudyService{
		answer:       &domain.Answer{Text: "answer"},
		ingestResult: &driving.IngestResult{DocumentID: "doc"},
	}
	server, _, err := newTestServer(study)
	require.NoError(t, err)

	dir := t.TempDir()
	var wg sync.WaitGroup
	for i := range 8 {
		path := filepath.Join(dir, fmt.Sprintf("week%d.md", i))
		require.NoError(t, os.WriteFile(path, []byte("# notes"), 0o600))

		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _, err := server.handleAsk(ctx, nil, AskInput{Question: fmt.Sprintf("q%d", i)})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := server.handleIngest(ctx, nil, IngestInput{Path: path})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := server.handleRemove(ctx, nil, RemoveInput{DocumentID: "unknown"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, server.session.History, 8)
	assert.Len(t, server.session.Documents, 8)
	assert.Len(t, study.asked, 8)
	assert.Len(t, study.removed, 8)
}

func TestServer_handleListSources(t *testing.T) {
	ctx := context.Background()

	study := &mockStudyService{sources: []domain.SourceInfo{
		{DocumentID: "a", Name: "a.pdf", Format: domain.FormatPDF, Pages: 4, Chunks: 9},
		{DocumentID: "b", Name: "b.txt", Format: domain.FormatText, Pages: 1, Chunks: 1},
	}}
	server, _, err := newTestServer(study)
	require.NoError(t, err)

	_, output, err := server.handleListSources(ctx, nil, ListSourcesInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "studymate_biology", output.Collection)
	assert.Equal(t, "pdf", output.Documents[0].Format)
	assert.Equal(t, 9, output.Documents[0].Chunks)

	study.err = errors.New("store closed")
	_, _, err = server.handleListSources(ctx, nil, ListSourcesInput{})
	assert.ErrorContains(t, err, "store closed")
}

func TestServer_handleRemove(t *testing.T) {
	ctx := context.Background()

	study := &mockStudyService{}
	server, _, err := newTestServer(study)
	require.NoError(t, err)

	_, output, err := server.handleRemove(ctx, nil, RemoveInput{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.True(t, output.Removed)
	assert.Equal(t, []string{"doc-1"}, study.removed)

	_, _, err = server.handleRemove(ctx, nil, RemoveInput{})
	assert.Error(t, err)

	study.err = domain.ErrNotFound
	_, _, err = server.handleRemove(ctx, nil, RemoveInput{DocumentID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
