package domain

import "math"

// Embedding is the vector produced for one chunk by one model.
type Embedding struct {
	ChunkID string
	Vector  []float32

	// Model identifies the embedding model. Vectors from different
	// models are never compared.
	Model string
}

// VectorRecord is the persisted unit of the vector store.
type VectorRecord struct {
	DocumentID   string
	DocumentName string
	ChunkID      string
	Position     int
	PageStart    int
	PageEnd      int
	Text         string
	Vector       []float32
	Model        string

	// Version tags the ingestion run that wrote the record.
	// Only the active version of a document is visible to queries.
	Version string
}

// ScoredRecord is a vector record with its similarity to a query.
type ScoredRecord struct {
	Record VectorRecord
	Score  float64
}

// CosineSimilarity returns the cosine of the angle between a and b.
// It returns 0 when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CollectionInfo describes a named vector collection.
type CollectionInfo struct {
	Name      string
	Documents int
	Records   int
}
