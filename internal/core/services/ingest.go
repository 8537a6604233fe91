package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Ingest loads, chunks and embeds a document into the session's collection.
//
// Records are staged under a fresh version and activated only when every
// chunk is stored, so a failed or cancelled run leaves the previous version
// (or nothing) visible. Errors name the document.
func (s *StudyService) Ingest(ctx context.Context, session *domain.Session, req driving.IngestRequest) (*driving.IngestResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	result, err := s.ingest(ctx, session, name, req)
	if err != nil {
		return nil, fmt.Errorf("ingest %q: %w", name, err)
	}
	return result, nil
}

func (s *StudyService) ingest(
	ctx context.Context, session *domain.Session, name string, req driving.IngestRequest,
) (*driving.IngestResult, error) {
	store, err := s.openStore(ctx, session)
	if err != nil {
		return nil, err
	}

	logger.Section("Ingest " + name)

	doc, err := s.deps.Loaders.Load(ctx, name, req.Data, req.Format)
	if err != nil {
		return nil, err
	}
	doc.ID = domain.DocumentID(session.Collection, name)
	doc.CreatedAt = s.now()
	logger.Debug("Loaded %s: format=%s pages=%d", doc.ID, doc.Format, len(doc.Pages))

	chunks, err := s.deps.Chunker.Chunk(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced", domain.ErrExtraction)
	}
	logger.Debug("Chunked into %d chunks", len(chunks))

	previous, previousChunks, err := s.previousDocument(ctx, store, session.Collection, doc.ID)
	if err != nil {
		return nil, err
	}

	version := s.newVersion()
	if err := s.stage(ctx, store, doc, chunks, version); err != nil {
		s.discard(store, doc.ID, version)
		return nil, err
	}

	// Metadata is written first so active records always have a listing.
	if err := s.deps.Documents.SaveDocument(ctx, session.Collection, doc, len(chunks)); err != nil {
		s.discard(store, doc.ID, version)
		return nil, fmt.Errorf("save document: %w", err)
	}

	if err := store.Activate(ctx, doc.ID, version, len(chunks)); err != nil {
		s.discard(store, doc.ID, version)
		s.restoreDocument(session.Collection, doc.ID, previous, previousChunks)
		return nil, fmt.Errorf("activate: %w", err)
	}

	session.TrackDocument(doc.ID)
	logger.Info("Ingested %s: %d pages, %d chunks", name, len(doc.Pages), len(chunks))

	return &driving.IngestResult{
		DocumentID: doc.ID,
		Name:       doc.Name,
		Format:     doc.Format,
		Pages:      len(doc.Pages),
		Chunks:     len(chunks),
	}, nil
}

// stage embeds every chunk with bounded concurrency and writes it under
// version. The first failure cancels the remaining workers.
func (s *StudyService) stage(
	ctx context.Context, store driven.VectorStore, doc *domain.Document, chunks []domain.Chunk, version string,
) error {
	model := s.deps.Embedder.ModelName()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, chunk := range chunks {
		g.Go(func() error {
			vector, err := s.deps.Embedder.Embed(gctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", chunk.Position, err)
			}
			err = store.Upsert(gctx, domain.VectorRecord{
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				ChunkID:      chunk.ID,
				Position:     chunk.Position,
				PageStart:    chunk.PageStart,
				PageEnd:      chunk.PageEnd,
				Text:         chunk.Text,
				Vector:       vector,
				Model:        model,
				Version:      version,
			})
			if err != nil {
				return fmt.Errorf("store chunk %d: %w", chunk.Position, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// previousDocument returns the metadata and active record count of the
// document being replaced, or nil when it is new.
func (s *StudyService) previousDocument(
	ctx context.Context, store driven.VectorStore, collection, id string,
) (*domain.Document, int, error) {
	doc, err := s.deps.Documents.GetDocument(ctx, collection, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read document: %w", err)
	}
	n, err := store.Count(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	return doc, n, nil
}

// restoreDocument puts back the metadata that a failed activation overwrote.
func (s *StudyService) restoreDocument(collection, id string, previous *domain.Document, chunks int) {
	ctx := context.Background()
	var err error
	if previous == nil {
		err = s.deps.Documents.DeleteDocument(ctx, collection, id)
		if errors.Is(err, domain.ErrNotFound) {
			err = nil
		}
	} else {
		err = s.deps.Documents.SaveDocument(ctx, collection, previous, chunks)
	}
	if err != nil {
		logger.Warn("restoring metadata of %s: %v", id, err)
	}
}

// discard drops a staged version. It uses a fresh context because the
// caller's context may be the reason ingestion stopped.
func (s *StudyService) discard(store driven.VectorStore, documentID, version string) {
	if err := store.Discard(context.Background(), documentID, version); err != nil {
		logger.Warn("discarding staged records of %s: %v", documentID, err)
	}
}
