package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	Path   string `json:"path" jsonschema:"path of the file to ingest"`
	Format string `json:"format,omitempty" jsonschema:"declared format: pdf, text, markdown, html or docx (default detect)"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Format     string `json:"format"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

// AskInput is the input schema for the ask_question tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the uploaded material"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict retrieval to one document"`
	K          int    `json:"k,omitempty" jsonschema:"number of passages to retrieve (default 5, max 20)"`
}

// AskOutput is the output schema for the ask_question tool.
type AskOutput struct {
	Answer     string         `json:"answer"`
	Grounded   bool           `json:"grounded"`
	Disclaimer string         `json:"disclaimer,omitempty"`
	Sources    []SourceOutput `json:"sources"`
}

// SourceOutput is one cited passage.
type SourceOutput struct {
	Index      int    `json:"index"`
	Label      string `json:"label"`
	DocumentID string `json:"document_id"`
	PageStart  int    `json:"page_start"`
	PageEnd    int    `json:"page_end"`
}

// ListSourcesInput is the (empty) input schema for the list_sources tool.
type ListSourcesInput struct{}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Collection string               `json:"collection"`
	Documents  []DocumentInfoOutput `json:"documents"`
	Count      int                  `json:"count"`
}

// DocumentInfoOutput summarises an ingested document.
type DocumentInfoOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Format     string `json:"format"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

// RemoveInput is the input schema for the remove_document tool.
type RemoveInput struct {
	DocumentID string `json:"document_id" jsonschema:"ID of the document to remove"`
}

// RemoveOutput is the output schema for the remove_document tool.
type RemoveOutput struct {
	DocumentID string `json:"document_id"`
	Removed    bool   `json:"removed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Add a local file (PDF, Markdown, HTML, Word or text) to the study collection",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question from the ingested study material, citing page numbers",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the documents in the study collection",
	}, s.handleListSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and its passages from the study collection",
	}, s.handleRemove)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, errors.New("path is required")
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.ports.Study.Ingest(ctx, s.session, driving.IngestRequest{
		Name:   filepath.Base(input.Path),
		Data:   data,
		Format: domain.Format(input.Format),
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID: res.DocumentID,
		Name:       res.Name,
		Format:     res.Format.String(),
		Pages:      res.Pages,
		Chunks:     res.Chunks,
	}, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, err := s.ports.Study.Ask(ctx, s.session, driving.AskRequest{
		Question:   input.Question,
		DocumentID: input.DocumentID,
		K:          input.K,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return nil, AskOutput{}, fmt.Errorf("generation failed, try again: %w", err)
		}
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     answer.Text,
		Grounded:   answer.Grounded,
		Disclaimer: answer.Disclaimer,
		Sources:    make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Index:      src.Index,
			Label:      src.Label,
			DocumentID: src.DocumentID,
			PageStart:  src.PageStart,
			PageEnd:    src.PageEnd,
		}
	}
	return nil, output, nil
}

func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	docs, err := s.documents(ctx)
	if err != nil {
		return nil, ListSourcesOutput{}, err
	}
	return nil, ListSourcesOutput{
		Collection: s.session.Collection,
		Documents:  docs,
		Count:      len(docs),
	}, nil
}

func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	if input.DocumentID == "" {
		return nil, RemoveOutput{}, errors.New("document_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ports.Study.RemoveDocument(ctx, s.session, input.DocumentID); err != nil {
		return nil, RemoveOutput{}, err
	}
	return nil, RemoveOutput{DocumentID: input.DocumentID, Removed: true}, nil
}

// documents lists the collection's documents in output form.
func (s *Server) documents(ctx context.Context) ([]DocumentInfoOutput, error) {
	sources, err := s.ports.Study.ListSources(ctx, s.session)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	docs := make([]DocumentInfoOutput, len(sources))
	for i, src := range sources {
		docs[i] = DocumentInfoOutput{
			DocumentID: src.DocumentID,
			Name:       src.Name,
			Format:     src.Format.String(),
			Pages:      src.Pages,
			Chunks:     src.Chunks,
		}
	}
	return docs, nil
}
