package mcp

import (
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server needs.
type Ports struct {
	// Study runs ingestion and question answering.
	Study driving.StudyService

	// Sessions creates the conversation the server's tools share.
	Sessions driving.SessionService

	// Collection names the collection to serve. Empty selects the default.
	Collection string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Study == nil {
		return ErrMissingStudyService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
