package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// storedMetadata is the JSON form of domain.DocumentMetadata.
type storedMetadata struct {
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Keywords  string     `json:"keywords,omitempty"`
	MIMEType  string     `json:"mime_type,omitempty"`
	SizeBytes int64      `json:"size_bytes,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// SaveDocument stores or replaces a document with its chunk count.
func (s *documentStore) SaveDocument(ctx context.Context, collection string, doc *domain.Document, chunks int) error {
	meta, err := json.Marshal(storedMetadata{
		Title:     doc.Metadata.Title,
		Author:    doc.Metadata.Author,
		Subject:   doc.Metadata.Subject,
		Keywords:  doc.Metadata.Keywords,
		MIMEType:  doc.Metadata.MIMEType,
		SizeBytes: doc.Metadata.SizeBytes,
		CreatedAt: doc.Metadata.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	ingestedAt := doc.CreatedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, name, format, pages, chunks, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			name = excluded.name,
			format = excluded.format,
			pages = excluded.pages,
			chunks = excluded.chunks,
			metadata = excluded.metadata,
			ingested_at = excluded.ingested_at`,
		collection, doc.ID, doc.Name, string(doc.Format), pageCount(doc), chunks, string(meta), formatTime(ingestedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func pageCount(doc *domain.Document) int {
	if doc.Metadata.PageCount > 0 {
		return doc.Metadata.PageCount
	}
	return len(doc.Pages)
}

// GetDocument retrieves a document's metadata. Text and page offsets are not stored.
func (s *documentStore) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	var (
		doc        domain.Document
		format     string
		pages      int
		chunks     int
		metaJSON   string
		ingestedAt string
	)
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, format, pages, chunks, metadata, ingested_at
		  FROM documents WHERE collection = ? AND id = ?`, collection, id).
		Scan(&doc.ID, &doc.Name, &format, &pages, &chunks, &metaJSON, &ingestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	var meta storedMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}

	doc.Format = domain.Format(format)
	doc.CreatedAt = parseTime(ingestedAt)
	doc.Metadata = domain.DocumentMetadata{
		PageCount: pages,
		Title:     meta.Title,
		Author:    meta.Author,
		Subject:   meta.Subject,
		Keywords:  meta.Keywords,
		MIMEType:  meta.MIMEType,
		SizeBytes: meta.SizeBytes,
		CreatedAt: meta.CreatedAt,
	}
	return &doc, nil
}

// ListDocuments returns document summaries ordered by name.
func (s *documentStore) ListDocuments(ctx context.Context, collection string) ([]domain.SourceInfo, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, format, pages, chunks, ingested_at
		  FROM documents WHERE collection = ?
		 ORDER BY name, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var infos []domain.SourceInfo
	for rows.Next() {
		var (
			info       domain.SourceInfo
			format     string
			ingestedAt string
		)
		if err := rows.Scan(&info.DocumentID, &info.Name, &format, &info.Pages, &info.Chunks, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		info.Format = domain.Format(format)
		info.IngestedAt = parseTime(ingestedAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteDocument removes a document's metadata.
func (s *documentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
