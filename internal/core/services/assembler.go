package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// DefaultDedupeThreshold is the cosine similarity above which two chunks
// count as the same passage.
const DefaultDedupeThreshold = 0.95

// Assembler turns a retrieval result into a bounded, labelled context block.
type Assembler struct {
	threshold float64
}

// NewAssembler creates an assembler. A threshold outside (0, 1] selects the default.
func NewAssembler(threshold float64) *Assembler {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDedupeThreshold
	}
	return &Assembler{threshold: threshold}
}

// Assemble renders chunks in score order as "[Source N] <label>\n<text>\n\n"
// entries until the next entry would exceed maxChars runes. Chunks are never
// truncated, and near-duplicates of an included chunk are skipped.
func (a *Assembler) Assemble(result domain.RetrievalResult, maxChars int) domain.AssembledContext {
	var out domain.AssembledContext
	if maxChars <= 0 {
		return out
	}

	var (
		b        strings.Builder
		used     int
		included []domain.RetrievedChunk
	)
	for _, c := range result.Chunks {
		if a.duplicate(c, included) {
			continue
		}

		index := len(out.Sources) + 1
		entry := fmt.Sprintf("[Source %d] %s\n%s\n\n", index, c.Label(), c.Text)
		n := utf8.RuneCountInString(entry)
		if used+n > maxChars {
			break
		}

		b.WriteString(entry)
		used += n
		included = append(included, c)
		out.Sources = append(out.Sources, domain.Source{
			Index:      index,
			Label:      c.Label(),
			DocumentID: c.DocumentID,
			ChunkID:    c.ChunkID,
			PageStart:  c.PageStart,
			PageEnd:    c.PageEnd,
		})
	}

	out.Text = b.String()
	return out
}

// duplicate reports whether c repeats an included chunk. Without vectors
// only identical text counts.
func (a *Assembler) duplicate(c domain.RetrievedChunk, included []domain.RetrievedChunk) bool {
	for _, prev := range included {
		if len(c.Vector) > 0 && len(prev.Vector) > 0 {
			if domain.CosineSimilarity(c.Vector, prev.Vector) >= a.threshold {
				return true
			}
			continue
		}
		if c.Text == prev.Text {
			return true
		}
	}
	return false
}
