package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Ensure StudyService implements the interface.
var _ driving.StudyService = (*StudyService)(nil)

// DefaultWorkers is the number of chunks embedded concurrently.
const DefaultWorkers = 4

// DefaultMaxContextChars bounds the assembled context.
const DefaultMaxContextChars = 6000

// StudyDeps are the collaborators of the study service.
type StudyDeps struct {
	Loaders   driven.LoaderRegistry
	Chunker   driven.Chunker
	Embedder  driven.EmbeddingService
	Vectors   driven.VectorStoreProvider
	Documents driven.DocumentStore
	Retriever *Retriever
	Assembler *Assembler
	Generator *AnswerGenerator
}

// StudyConfig tunes ingestion and context size.
type StudyConfig struct {
	// Workers bounds concurrent chunk embedding.
	Workers int

	// MaxContextChars bounds the context handed to the generator.
	MaxContextChars int
}

// StudyService runs the ingest and question pipelines.
type StudyService struct {
	deps StudyDeps
	cfg  StudyConfig

	now        func() time.Time
	newVersion func() string
}

// NewStudyService creates the study service. Every dependency is required.
func NewStudyService(deps StudyDeps, cfg StudyConfig) (*StudyService, error) {
	switch {
	case deps.Loaders == nil, deps.Chunker == nil, deps.Embedder == nil,
		deps.Vectors == nil, deps.Documents == nil, deps.Retriever == nil,
		deps.Assembler == nil, deps.Generator == nil:
		return nil, fmt.Errorf("%w: study service is missing a dependency", domain.ErrInvalidConfiguration)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}

	return &StudyService{
		deps:       deps,
		cfg:        cfg,
		now:        time.Now,
		newVersion: uuid.NewString,
	}, nil
}

// openStore opens the session's collection at the embedder's dimension.
func (s *StudyService) openStore(ctx context.Context, session *domain.Session) (driven.VectorStore, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}
	store, err := s.deps.Vectors.Open(ctx, session.Collection, s.deps.Embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}
	return store, nil
}

// Ask retrieves, assembles and generates an answer. The turn joins the
// session history only when generation succeeds.
func (s *StudyService) Ask(ctx context.Context, session *domain.Session, req driving.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	store, err := s.openStore(ctx, session)
	if err != nil {
		return nil, err
	}

	logger.Section("Ask")
	logger.Debug("Question: %q", question)

	result, err := s.deps.Retriever.Retrieve(ctx, store, domain.Query{
		Text:       question,
		DocumentID: req.DocumentID,
		K:          req.K,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if result.IsEmpty() {
		logger.Info("No relevant passages in %s", session.Collection)
	}

	assembled := s.deps.Assembler.Assemble(result, s.cfg.MaxContextChars)
	logger.Debug("Context: %d sources, %d chars", len(assembled.Sources), len([]rune(assembled.Text)))

	answer, err := s.deps.Generator.Generate(ctx, question, assembled, session.History)
	if err != nil {
		return nil, err
	}

	session.Append(domain.Turn{Question: question, Answer: answer.Text})
	return answer, nil
}

// ListSources returns the documents in the session's collection.
func (s *StudyService) ListSources(ctx context.Context, session *domain.Session) ([]domain.SourceInfo, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}
	sources, err := s.deps.Documents.ListDocuments(ctx, session.Collection)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// RemoveDocument deletes a document's records, then its metadata.
func (s *StudyService) RemoveDocument(ctx context.Context, session *domain.Session, documentID string) error {
	store, err := s.openStore(ctx, session)
	if err != nil {
		return err
	}
	if _, err := s.deps.Documents.GetDocument(ctx, session.Collection, documentID); err != nil {
		return err
	}

	if err := store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("remove %s: %w", documentID, err)
	}
	if err := s.deps.Documents.DeleteDocument(ctx, session.Collection, documentID); err != nil {
		return fmt.Errorf("remove %s: %w", documentID, err)
	}

	session.ForgetDocument(documentID)
	logger.Info("Removed %s from %s", documentID, session.Collection)
	return nil
}
