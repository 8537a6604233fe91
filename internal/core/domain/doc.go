// Package domain defines the core business entities for StudyMate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text of an uploaded file with page boundaries
//   - Chunk: An overlapping, size-bounded span of a document
//   - VectorRecord: The persisted unit of the vector store
//   - RetrievalResult: Ranked chunks answering a query
//   - Answer: Generated text with the sources it cites
//   - Session: Conversation state threaded through ingest and ask calls
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
