// Package mcp provides an MCP (Model Context Protocol) server adapter for StudyMate.
// It lets AI assistants ingest study material and ask grounded questions.
package mcp

import "errors"

// ErrMissingStudyService is returned when the study service is not provided.
var ErrMissingStudyService = errors.New("mcp: study service is required")

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")
