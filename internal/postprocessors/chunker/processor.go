// Package chunker splits document text into overlapping, size-bounded chunks.
// Sizes are counted in runes. Boundaries snap back to a paragraph break,
// sentence end or whitespace when one lies within the tolerance window,
// and fall back to a hard cut otherwise.
package chunker

import (
	"fmt"
	"unicode"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document text into chunks.
type Processor struct {
	chunkSize int
	overlap   int
	tolerance int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithTolerance sets how far before the size limit a boundary may snap.
// The default is a fifth of the chunk size.
func WithTolerance(tolerance int) Option {
	return func(p *Processor) {
		p.tolerance = tolerance
	}
}

// New creates a chunker. It fails with domain.ErrInvalidConfiguration
// unless 0 <= overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		tolerance: -1,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d",
			domain.ErrInvalidConfiguration, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be at least 0 and less than chunk size %d",
			domain.ErrInvalidConfiguration, p.overlap, p.chunkSize)
	}
	if p.tolerance < 0 {
		p.tolerance = p.chunkSize / 5
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Size returns the configured chunk size.
func (p *Processor) Size() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits the document text. Chunk i+1 starts exactly Overlap runes
// before chunk i ends, so dropping the first Overlap runes of every chunk
// after the first and concatenating reconstructs the text.
func (p *Processor) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	for start := 0; start < n; {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = p.snap(runes, start, end)
		}

		position := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Position:   position,
			Start:      start,
			End:        end,
			PageStart:  doc.PageAt(firstContent(runes, start, end)),
			PageEnd:    doc.PageAt(lastContent(runes, start, end)),
			Text:       string(runes[start:end]),
		})

		if end == n {
			break
		}

		start = end - p.overlap
	}

	return chunks, nil
}

// snap moves end back to the best boundary in the tolerance window.
// The window never reaches below start+overlap+1 so the next chunk advances.
func (p *Processor) snap(runes []rune, start, end int) int {
	lo := end - p.tolerance
	if floor := start + p.overlap + 1; lo < floor {
		lo = floor
	}
	if lo >= end {
		return end
	}

	for i := end; i >= lo; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end - 1; i >= lo; i-- {
		if isSentenceEnd(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	for i := end; i >= lo; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// firstContent returns the offset of the first non-space rune in [start, end).
func firstContent(runes []rune, start, end int) int {
	for i := start; i < end; i++ {
		if !unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return start
}

// lastContent returns the offset of the last non-space rune in [start, end).
func lastContent(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if !unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end - 1
}
