package domain

import "fmt"

// Query is a user question sent to the retriever.
type Query struct {
	// Text is the raw question.
	Text string

	// DocumentID restricts retrieval to one document when set.
	DocumentID string

	// K is the number of chunks to retrieve. Zero selects the default.
	K int
}

// RetrievedChunk is one ranked entry of a retrieval result.
type RetrievedChunk struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	Position     int
	PageStart    int
	PageEnd      int
	Text         string
	Score        float64

	// Vector is the stored embedding, used to drop near-duplicates.
	Vector []float32
}

// Label renders the traceable source label, e.g. "biology.pdf, page 3".
func (c RetrievedChunk) Label() string {
	return SourceLabel(c.DocumentName, c.PageStart, c.PageEnd)
}

// SourceLabel formats a document name with its page span.
func SourceLabel(name string, pageStart, pageEnd int) string {
	switch {
	case pageStart <= 0:
		return name
	case pageEnd <= pageStart:
		return fmt.Sprintf("%s, page %d", name, pageStart)
	default:
		return fmt.Sprintf("%s, pages %d-%d", name, pageStart, pageEnd)
	}
}

// RetrievalResult holds chunks ranked by descending similarity.
// An empty result is a valid state meaning no grounding is available.
type RetrievalResult struct {
	Chunks []RetrievedChunk
}

// IsEmpty reports whether nothing was retrieved.
func (r RetrievalResult) IsEmpty() bool {
	return len(r.Chunks) == 0
}

// Source is a labelled entry of the assembled context.
type Source struct {
	// Index is the N in "[Source N]".
	Index      int
	Label      string
	DocumentID string
	ChunkID    string
	PageStart  int
	PageEnd    int
}

// AssembledContext is the bounded text block handed to the answer generator.
type AssembledContext struct {
	Text    string
	Sources []Source
}

// IsEmpty reports whether the context carries no grounding.
func (c AssembledContext) IsEmpty() bool {
	return len(c.Sources) == 0
}

// UngroundedDisclaimer flags answers produced without retrieved context.
const UngroundedDisclaimer = "not grounded in uploaded material"

// Answer is the generated response to a question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists the context entries the answer cites.
	Sources []Source

	// Grounded is false when no context was available.
	Grounded bool

	// Disclaimer is set for ungrounded answers.
	Disclaimer string
}
