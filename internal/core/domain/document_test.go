package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, DocumentID("studymate_bio", "notes.pdf"), DocumentID("studymate_bio", "notes.pdf"))
	})

	t.Run("scoped by collection", func(t *testing.T) {
		assert.NotEqual(t, DocumentID("studymate_a", "notes.pdf"), DocumentID("studymate_b", "notes.pdf"))
	})

	t.Run("hex encoded", func(t *testing.T) {
		assert.Len(t, DocumentID("c", "n"), 16)
	})
}

func TestDocument_PageAt(t *testing.T) {
	doc := Document{
		Pages: []Page{
			{Number: 1, Start: 0, End: 10},
			{Number: 2, Start: 12, End: 20},
			{Number: 3, Start: 22, End: 30},
		},
	}

	tests := []struct {
		offset   int
		expected int
	}{
		{0, 1},
		{9, 1},
		{10, 2}, // separator between pages belongs to the next page
		{12, 2},
		{25, 3},
		{100, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, doc.PageAt(tt.offset), "offset %d", tt.offset)
	}
}

func TestDocument_PageAt_NoPages(t *testing.T) {
	doc := Document{}
	assert.Equal(t, 1, doc.PageAt(42))
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "abc:0", ChunkID("abc", 0))
	assert.Equal(t, "abc:12", ChunkID("abc", 12))
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "pdf", FormatPDF.String())
	assert.Equal(t, "markdown", FormatMarkdown.String())
}
