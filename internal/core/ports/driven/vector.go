package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// VectorStoreProvider opens named collections of vector records.
// Collections are durable: reopening a name returns the same records.
type VectorStoreProvider interface {
	// Open returns the named collection, creating it if needed.
	// A positive dimensions value becomes the collection's configured dimension.
	Open(ctx context.Context, name string, dimensions int) (VectorStore, error)

	// Collections lists collections with their document and record counts.
	Collections(ctx context.Context) ([]domain.CollectionInfo, error)

	// DropCollection removes a collection and everything in it.
	DropCollection(ctx context.Context, name string) error
}

// VectorStore persists chunk vectors and ranks them by cosine similarity.
//
// Records are written under a document version. Only the active version
// of a document is visible to Query and Count, which gives document-scoped
// atomic visibility: stage a new version, then Activate or Discard it.
type VectorStore interface {
	// Name returns the collection name.
	Name() string

	// Dimensions returns the configured embedding dimension (0 if unset).
	Dimensions() int

	// Upsert writes records keyed by (document id, chunk id, version).
	// Writing the same key again replaces the record.
	// Returns domain.ErrDimensionMismatch for vectors of the wrong length.
	Upsert(ctx context.Context, records ...domain.VectorRecord) error

	// Query returns up to opts.K active records most similar to vector.
	// Records whose dimension or model differs from the query are skipped.
	// An empty collection yields an empty slice, not an error.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]domain.ScoredRecord, error)

	// Activate makes version the visible version of the document and
	// purges the version it replaces, atomically. Other staged versions
	// are left alone. It fails with domain.ErrIncompleteVersion unless
	// exactly expected records are staged under version.
	Activate(ctx context.Context, documentID, version string, expected int) error

	// Discard removes a staged version that was never activated.
	Discard(ctx context.Context, documentID, version string) error

	// DeleteDocument removes all records of a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Count returns the number of visible records for a document,
	// or for the whole collection when documentID is empty.
	Count(ctx context.Context, documentID string) (int, error)
}

// QueryOptions configures a vector query.
type QueryOptions struct {
	// K is the maximum number of results. Zero or less means no limit.
	K int

	// DocumentID restricts results to one document.
	DocumentID string

	// Model restricts results to records embedded by this model.
	Model string
}
