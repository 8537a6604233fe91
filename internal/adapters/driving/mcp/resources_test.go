package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func sourcesRequest() *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: sourcesURI}}
}

func TestServer_handleSourcesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents as JSON", func(t *testing.T) {
		study := &mockStudyService{sources: []domain.SourceInfo{
			{DocumentID: "a", Name: "a.pdf", Format: domain.FormatPDF, Pages: 2, Chunks: 3},
		}}
		server, _, err := newTestServer(study)
		require.NoError(t, err)

		result, err := server.handleSourcesResource(ctx, sourcesRequest())
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Equal(t, sourcesURI, result.Contents[0].URI)

		var docs []DocumentInfoOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "a.pdf", docs[0].Name)
	})

	t.Run("empty collection is an empty array", func(t *testing.T) {
		server, _, err := newTestServer(&mockStudyService{})
		require.NoError(t, err)

		result, err := server.handleSourcesResource(ctx, sourcesRequest())
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("store failure", func(t *testing.T) {
		server, _, err := newTestServer(&mockStudyService{err: errors.New("boom")})
		require.NoError(t, err)

		_, err = server.handleSourcesResource(ctx, sourcesRequest())
		assert.Error(t, err)
	})
}
