package driving

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// StudyService is the core's contract with the presentation layer.
type StudyService interface {
	// Ingest loads, chunks and embeds a document into the session's collection.
	// The document becomes queryable only once every chunk is stored.
	Ingest(ctx context.Context, session *domain.Session, req IngestRequest) (*IngestResult, error)

	// Ask answers a question grounded in the session's collection.
	Ask(ctx context.Context, session *domain.Session, req AskRequest) (*domain.Answer, error)

	// ListSources returns the documents in the session's collection.
	ListSources(ctx context.Context, session *domain.Session) ([]domain.SourceInfo, error)

	// RemoveDocument deletes a document and all of its vector records.
	RemoveDocument(ctx context.Context, session *domain.Session, documentID string) error
}

// IngestRequest carries an uploaded document.
type IngestRequest struct {
	// Name is the source name used in citations.
	Name string

	// Data is the raw document bytes.
	Data []byte

	// Format is the declared format. Empty means detect.
	Format domain.Format
}

// IngestResult summarises a completed ingestion.
type IngestResult struct {
	DocumentID string
	Name       string
	Format     domain.Format
	Pages      int
	Chunks     int
}

// AskRequest carries a user question.
type AskRequest struct {
	// Question is the raw question text.
	Question string

	// DocumentID restricts retrieval to one document.
	DocumentID string

	// K overrides the number of retrieved chunks.
	K int
}

// SessionService manages session lifecycles.
type SessionService interface {
	// Create starts a session bound to a collection.
	Create(collection string) *domain.Session

	// Get returns a live session.
	// Returns domain.ErrNotFound for unknown or destroyed sessions.
	Get(id string) (*domain.Session, error)

	// Destroy ends a session. With purge, the documents ingested during
	// the session are removed from the collection.
	Destroy(ctx context.Context, id string, purge bool) error
}

// CollectionService manages named vector collections.
type CollectionService interface {
	// List returns every collection with its counts.
	List(ctx context.Context) ([]domain.CollectionInfo, error)

	// Drop removes a collection and its documents.
	Drop(ctx context.Context, name string) error
}
