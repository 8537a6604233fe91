package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/vectorsearch"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/logger"
)

// ==================== Vector Store Provider ====================

// provider implements driven.VectorStoreProvider.
type provider struct {
	store *Store
}

var _ driven.VectorStoreProvider = (*provider)(nil)

// Open returns the named collection, creating it if needed. A positive
// dimensions value that differs from the stored one replaces it; records
// of the old dimension stay on disk but no longer match queries.
func (p *provider) Open(ctx context.Context, name string, dimensions int) (driven.VectorStore, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	var stored int
	err := p.store.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", name).Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			stored = dimensions
			_, err = tx.ExecContext(ctx,
				"INSERT INTO collections (name, dimensions, created_at) VALUES (?, ?, ?)",
				name, max(dimensions, 0), formatTime(time.Now()))
			return err
		case err != nil:
			return err
		}

		if dimensions > 0 && dimensions != stored {
			if stored > 0 {
				logger.Warn("collection %s: embedding dimension changed from %d to %d; re-ingest older documents",
					name, stored, dimensions)
			}
			stored = dimensions
			_, err = tx.ExecContext(ctx, "UPDATE collections SET dimensions = ? WHERE name = ?", dimensions, name)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}

	return &vectorStore{store: p.store, name: name, dimensions: max(stored, 0)}, nil
}

// Collections lists collections with their active document and record counts.
func (p *provider) Collections(ctx context.Context) ([]domain.CollectionInfo, error) {
	rows, err := p.store.db.QueryContext(ctx, `
		SELECT c.name,
		       (SELECT COUNT(*) FROM active_versions a WHERE a.collection = c.name),
		       (SELECT COUNT(*) FROM vector_records r
		          JOIN active_versions a
		            ON a.collection = r.collection AND a.document_id = r.document_id AND a.version = r.version
		         WHERE r.collection = c.name)
		  FROM collections c
		 ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var infos []domain.CollectionInfo
	for rows.Next() {
		var info domain.CollectionInfo
		if err := rows.Scan(&info.Name, &info.Documents, &info.Records); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DropCollection removes a collection with its records and documents.
func (p *provider) DropCollection(ctx context.Context, name string) error {
	return p.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name)
		if err != nil {
			return fmt.Errorf("dropping collection: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
		}
		for _, table := range []string{"vector_records", "active_versions", "documents"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE collection = ?", name); err != nil {
				return fmt.Errorf("dropping %s: %w", table, err)
			}
		}
		return nil
	})
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore for one collection.
type vectorStore struct {
	store *Store
	name  string

	mu         sync.RWMutex
	dimensions int
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Name returns the collection name.
func (v *vectorStore) Name() string {
	return v.name
}

// Dimensions returns the configured embedding dimension.
func (v *vectorStore) Dimensions() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dimensions
}

// Upsert writes records in one transaction. The first write to a
// collection without a configured dimension fixes it.
func (v *vectorStore) Upsert(ctx context.Context, records ...domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dims := v.dimensions
	if dims == 0 {
		dims = len(records[0].Vector)
	}
	for _, r := range records {
		if len(r.Vector) != dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection %s expects %d",
				domain.ErrDimensionMismatch, r.ChunkID, len(r.Vector), v.name, dims)
		}
		if r.DocumentID == "" || r.ChunkID == "" || r.Version == "" {
			return fmt.Errorf("%w: record requires document id, chunk id and version", domain.ErrInvalidInput)
		}
	}

	err := v.store.withTx(ctx, func(tx *sql.Tx) error {
		if v.dimensions == 0 {
			if _, err := tx.ExecContext(ctx, "UPDATE collections SET dimensions = ? WHERE name = ?", dims, v.name); err != nil {
				return err
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO vector_records
				(collection, document_id, chunk_id, version, document_name, position,
				 page_start, page_end, text, model, dimensions, vector)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (collection, document_id, chunk_id, version) DO UPDATE SET
				document_name = excluded.document_name,
				position = excluded.position,
				page_start = excluded.page_start,
				page_end = excluded.page_end,
				text = excluded.text,
				model = excluded.model,
				dimensions = excluded.dimensions,
				vector = excluded.vector`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.ExecContext(ctx,
				v.name, r.DocumentID, r.ChunkID, r.Version, r.DocumentName, r.Position,
				r.PageStart, r.PageEnd, r.Text, r.Model, len(r.Vector), float32SliceToBytes(r.Vector))
			if err != nil {
				return fmt.Errorf("upserting %s: %w", r.ChunkID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	v.dimensions = dims
	return nil
}

// Query ranks the active records by cosine similarity to vector.
func (v *vectorStore) Query(ctx context.Context, vector []float32, opts driven.QueryOptions) ([]domain.ScoredRecord, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	var (
		where strings.Builder
		args  = []any{v.name, len(vector)}
	)
	where.WriteString("r.collection = ? AND r.dimensions = ?")
	if opts.DocumentID != "" {
		where.WriteString(" AND r.document_id = ?")
		args = append(args, opts.DocumentID)
	}
	if opts.Model != "" {
		where.WriteString(" AND r.model = ?")
		args = append(args, opts.Model)
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT r.document_id, r.document_name, r.chunk_id, r.position, r.page_start, r.page_end,
		       r.text, r.model, r.version, r.vector
		  FROM vector_records r
		  JOIN active_versions a
		    ON a.collection = r.collection AND a.document_id = r.document_id AND a.version = r.version
		 WHERE `+where.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var (
			r    domain.VectorRecord
			blob []byte
		)
		if err := rows.Scan(&r.DocumentID, &r.DocumentName, &r.ChunkID, &r.Position, &r.PageStart, &r.PageEnd,
			&r.Text, &r.Model, &r.Version, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		r.Vector = bytesToFloat32Slice(blob)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vectorsearch.Rank(records, vector, opts.Model, opts.K), nil
}

// Activate points the document at version and purges the version it replaces.
// The record count is checked inside the transaction, so records removed by
// another process while the version was staged are caught here.
func (v *vectorStore) Activate(ctx context.Context, documentID, version string, expected int) error {
	return v.store.withTx(ctx, func(tx *sql.Tx) error {
		var staged int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM vector_records WHERE collection = ? AND document_id = ? AND version = ?",
			v.name, documentID, version).Scan(&staged)
		if err != nil {
			return fmt.Errorf("counting %s version %s: %w", documentID, version, err)
		}
		if staged != expected {
			return fmt.Errorf("%w: %s version %s has %d of %d records",
				domain.ErrIncompleteVersion, documentID, version, staged, expected)
		}

		var previous string
		err = tx.QueryRowContext(ctx,
			"SELECT version FROM active_versions WHERE collection = ? AND document_id = ?",
			v.name, documentID).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reading active version of %s: %w", documentID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO active_versions (collection, document_id, version) VALUES (?, ?, ?)
			ON CONFLICT (collection, document_id) DO UPDATE SET version = excluded.version`,
			v.name, documentID, version)
		if err != nil {
			return fmt.Errorf("activating %s: %w", documentID, err)
		}
		if previous == "" || previous == version {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM vector_records WHERE collection = ? AND document_id = ? AND version = ?",
			v.name, documentID, previous)
		if err != nil {
			return fmt.Errorf("purging version %s of %s: %w", previous, documentID, err)
		}
		return nil
	})
}

// Discard removes a staged version. The active version is never discarded.
func (v *vectorStore) Discard(ctx context.Context, documentID, version string) error {
	_, err := v.store.db.ExecContext(ctx, `
		DELETE FROM vector_records
		 WHERE collection = ? AND document_id = ? AND version = ?
		   AND NOT EXISTS (
		       SELECT 1 FROM active_versions a
		        WHERE a.collection = ? AND a.document_id = ? AND a.version = ?)`,
		v.name, documentID, version, v.name, documentID, version)
	if err != nil {
		return fmt.Errorf("discarding %s version %s: %w", documentID, version, err)
	}
	return nil
}

// DeleteDocument removes every version of a document.
func (v *vectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	return v.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"vector_records", "active_versions"} {
			_, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE collection = ? AND document_id = ?",
				v.name, documentID)
			if err != nil {
				return fmt.Errorf("deleting %s from %s: %w", documentID, table, err)
			}
		}
		return nil
	})
}

// Count returns the number of visible records.
func (v *vectorStore) Count(ctx context.Context, documentID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM vector_records r
		  JOIN active_versions a
		    ON a.collection = r.collection AND a.document_id = r.document_id AND a.version = r.version
		 WHERE r.collection = ?`
	args := []any{v.name}
	if documentID != "" {
		query += " AND r.document_id = ?"
		args = append(args, documentID)
	}

	var n int
	if err := v.store.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
