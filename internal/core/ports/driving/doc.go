// Package driving defines interfaces that external actors (CLI, MCP) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// The four study boundaries are ingest document, ask question, list sources
// and remove document. Implementations live in internal/core/services.
package driving
