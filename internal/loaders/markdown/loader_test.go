package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

const sample = `Preface text.

# Cells

Cells are the **basic unit** of life. See [the atlas](http://example.com).

# Photosynthesis

Plants convert *light* into ` + "`glucose`" + `.

- chlorophyll
- water
`

func TestLoad_SectionsBecomePages(t *testing.T) {
	doc, err := New().Load(context.Background(), "bio.md", []byte(sample))
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	runes := []rune(doc.Text)
	assert.Equal(t, "Preface text.", string(runes[doc.Pages[0].Start:doc.Pages[0].End]))
	assert.Contains(t, string(runes[doc.Pages[1].Start:doc.Pages[1].End]), "Cells are the basic unit of life. See the atlas.")
	assert.Contains(t, string(runes[doc.Pages[2].Start:doc.Pages[2].End]), "Plants convert light into glucose.")
	assert.Equal(t, "Cells", doc.Metadata.Title)
	assert.Equal(t, domain.FormatMarkdown, doc.Format)
}

func TestLoad_NoHeadingsSinglePage(t *testing.T) {
	doc, err := New().Load(context.Background(), "plain_notes.md", []byte("Just text with _emphasis_."))
	require.NoError(t, err)

	assert.Len(t, doc.Pages, 1)
	assert.Equal(t, "Just text with emphasis.", doc.Text)
	assert.Equal(t, "plain notes", doc.Metadata.Title)
}

func TestLoad_OnlyMarkup(t *testing.T) {
	_, err := New().Load(context.Background(), "empty.md", []byte("---\n\n![img](x.png)\n"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"heading", "## Title", "Title"},
		{"bold", "a **b** c", "a b c"},
		{"link", "[text](http://x)", "text"},
		{"image removed", "before ![alt](img.png) after", "before  after"},
		{"blockquote", "> quoted", "quoted"},
		{"list", "- item", "item"},
		{"snake case kept", "use my_var here", "use my_var here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripMarkdown(tt.input))
		})
	}
}
