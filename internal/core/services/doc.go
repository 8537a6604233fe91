// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingest pipeline is Loader, Chunker, Embedder and Vector Store.
// The question pipeline is Embedder, Retriever, Assembler and Answer
// Generator.
package services
