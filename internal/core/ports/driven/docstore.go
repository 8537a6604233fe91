package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// DocumentStore remembers the documents ingested into each collection.
// The vector store owns the records; this store only tracks document metadata.
type DocumentStore interface {
	// SaveDocument stores or replaces a document with its chunk count.
	SaveDocument(ctx context.Context, collection string, doc *domain.Document, chunks int) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, collection, id string) (*domain.Document, error)

	// ListDocuments returns summaries of every document in the collection.
	ListDocuments(ctx context.Context, collection string) ([]domain.SourceInfo, error)

	// DeleteDocument removes a document.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteDocument(ctx context.Context, collection, id string) error
}
