package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func TestCollectionsList(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.collections.infos = []domain.CollectionInfo{
		{Name: "studymate_biology", Documents: 2, Records: 30},
		{Name: "studymate_default", Documents: 1, Records: 4},
	}

	out, err := execute(t, "", "collections", "list")
	require.NoError(t, err)

	var current string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), "*") {
			current = line
		}
	}
	assert.Contains(t, current, "studymate_default")
	assert.Contains(t, out, "studymate_biology")
}

func TestCollectionsList_FlagSelectsCurrent(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.collections.infos = []domain.CollectionInfo{
		{Name: "studymate_biology", Documents: 2, Records: 30},
	}

	out, err := execute(t, "", "collections", "-c", "biology")
	require.NoError(t, err)
	assert.Contains(t, out, "*")
}

func TestCollectionsList_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "collection", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No collections yet.")
}

func TestCollectionsDrop(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "collections", "drop", "biology")
	require.NoError(t, err)
	assert.Equal(t, []string{"biology"}, ts.collections.dropped)
	assert.Contains(t, out, "Dropped biology")

	ts.collections.err = domain.ErrNotFound
	_, err = execute(t, "", "collections", "drop", "chemistry")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
