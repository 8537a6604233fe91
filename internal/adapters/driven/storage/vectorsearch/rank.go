// Package vectorsearch ranks vector records by cosine similarity.
// Both storage adapters share it so results are identical across backends.
package vectorsearch

import (
	"sort"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Rank scores records against query and returns the best k, ordered by
// descending similarity with ties broken by chunk ID. Records with a
// different dimension, or a different model when model is set, are skipped.
// A k of zero or less returns every eligible record.
func Rank(records []domain.VectorRecord, query []float32, model string, k int) []domain.ScoredRecord {
	scored := make([]domain.ScoredRecord, 0, len(records))
	for _, r := range records {
		if len(r.Vector) != len(query) {
			continue
		}
		if model != "" && r.Model != model {
			continue
		}
		scored = append(scored, domain.ScoredRecord{
			Record: r,
			Score:  domain.CosineSimilarity(query, r.Vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.ChunkID < scored[j].Record.ChunkID
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
