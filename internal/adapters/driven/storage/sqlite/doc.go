// Package sqlite provides the SQLite-backed vector and document stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single database file holds every collection:
//
//   - VectorStoreProvider: named collections of versioned chunk vectors
//   - DocumentStore: per-collection document metadata
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Similarity Search
//
// Queries scan the active records of a collection and rank them by cosine
// similarity in Go. Study collections hold thousands of chunks, not
// millions, so an exact scan keeps results deterministic.
//
// # Data Location
//
// By default, the database is stored at ~/.studymate/data/studymate.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store runs SQLite in WAL
// mode over a single connection.
package sqlite
