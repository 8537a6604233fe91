package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil study service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Sessions: &mockSessionService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingStudyService)
	})

	t.Run("nil session service returns error", func(t *testing.T) {
		_, err := NewServer(&Ports{Study: &mockStudyService{}})
		assert.ErrorIs(t, err, ErrMissingSessionService)
	})

	t.Run("valid ports creates server with one session", func(t *testing.T) {
		server, sessions, err := newTestServer(&mockStudyService{})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.Equal(t, 1, sessions.created)
		assert.Equal(t, "studymate_biology", server.Collection())
	})
}

func TestServer_CloseEndsSession(t *testing.T) {
	server, sessions, err := newTestServer(&mockStudyService{})
	require.NoError(t, err)

	server.close()
	assert.Equal(t, []string{"s1"}, sessions.destroyed)
}
