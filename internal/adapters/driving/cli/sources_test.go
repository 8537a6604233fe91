package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func TestSourcesCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents in studymate_default")
}

func TestSourcesCmd_Table(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.study.sources = []domain.SourceInfo{
		{DocumentID: "a1", Name: "bio.pdf", Format: domain.FormatPDF, Pages: 12, Chunks: 40, IngestedAt: time.Now()},
		{DocumentID: "b2", Name: "notes.md", Format: domain.FormatMarkdown, Pages: 1, Chunks: 3, IngestedAt: time.Now()},
	}

	out, err := execute(t, "", "sources")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "bio.pdf")
	assert.Contains(t, out, "notes.md")
	assert.Contains(t, out, "markdown")
}

func TestSourcesCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.study.sources = []domain.SourceInfo{
		{DocumentID: "a1", Name: "bio.pdf", Format: domain.FormatPDF, Pages: 12, Chunks: 40,
			IngestedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
	}

	out, err := execute(t, "", "sources", "--json")
	require.NoError(t, err)

	var got []sourceInfoOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "pdf", got[0].Format)
	assert.Equal(t, "2026-03-01T09:30:00Z", got[0].IngestedAt)
}

func TestRemoveCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "remove", "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ts.study.removed)
	assert.Contains(t, out, "Removed a1")
}

func TestRemoveCmd_NotFound(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.study.err = domain.ErrNotFound

	_, err := execute(t, "", "remove", "zz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveCmd_RequiresID(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "remove")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
