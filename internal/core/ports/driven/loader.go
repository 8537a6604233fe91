package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Loader extracts text and page boundaries from document bytes.
// Loaders are pure: they perform no I/O beyond reading the given bytes.
type Loader interface {
	// Format returns the document format this loader parses.
	Format() domain.Format

	// MIMETypes returns the MIME types that map to this loader.
	MIMETypes() []string

	// Extensions returns file extensions (with dot) that map to this loader.
	Extensions() []string

	// Load parses data. It returns domain.ErrUnsupportedFormat when the
	// bytes are not this format and domain.ErrExtraction when they parse
	// but contain no text.
	Load(ctx context.Context, name string, data []byte) (*domain.Document, error)
}

// LoaderRegistry dispatches documents to the loader for their format.
// It is the sole entry point from driving adapters into extraction.
type LoaderRegistry interface {
	// Register adds a loader, replacing any loader for the same format.
	Register(loader Loader)

	// Detect determines the format from the name and leading bytes.
	Detect(name string, data []byte) (domain.Format, error)

	// Load extracts a document. An empty format triggers detection.
	Load(ctx context.Context, name string, data []byte, format domain.Format) (*domain.Document, error)

	// Formats lists the registered formats.
	Formats() []domain.Format
}

// Chunker splits document text into overlapping, size-bounded chunks.
type Chunker interface {
	// Chunk returns chunks covering the document text with no gaps.
	Chunk(doc *domain.Document) ([]domain.Chunk, error)
}
