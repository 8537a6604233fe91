// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Loader / LoaderRegistry: Extracts text and pages from uploaded bytes
//   - Chunker: Splits document text into overlapping chunks
//   - EmbeddingService: Turns chunks and questions into vectors
//   - VectorStoreProvider / VectorStore: Persists and ranks vector records
//   - DocumentStore: Remembers which documents each collection holds
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, ask returns retrieved context only.
//   - PromptStore: Without it, built-in prompt templates are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader, or chunker package
package driven
