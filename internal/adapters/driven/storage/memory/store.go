// Package memory provides in-memory implementations of the storage ports.
// Nothing survives the process; it backs tests and --ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/vectorsearch"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Store holds every collection and the document metadata in memory.
// One lock guards all state so Activate and DropCollection are atomic.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	// documents is keyed by collection, then document id.
	documents map[string]map[string]storedDocument
}

type collection struct {
	dimensions int
	// records is keyed by document id, then version, then chunk id.
	records map[string]map[string]map[string]domain.VectorRecord
	active  map[string]string
}

type storedDocument struct {
	doc    domain.Document
	chunks int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
		documents:   make(map[string]map[string]storedDocument),
	}
}

// VectorStores returns the vector store provider.
func (s *Store) VectorStores() driven.VectorStoreProvider {
	return &provider{store: s}
}

// DocumentStore returns the document store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// collectionLocked returns the named collection, creating it when create is set.
// Caller must hold the write lock when create is true.
func (s *Store) collectionLocked(name string, create bool) *collection {
	c, ok := s.collections[name]
	if !ok && create {
		c = &collection{
			records: make(map[string]map[string]map[string]domain.VectorRecord),
			active:  make(map[string]string),
		}
		s.collections[name] = c
	}
	return c
}

// activeRecords returns the visible records of a document.
func (c *collection) activeRecords(documentID string) map[string]domain.VectorRecord {
	version, ok := c.active[documentID]
	if !ok {
		return nil
	}
	return c.records[documentID][version]
}

// ==================== Vector Store Provider ====================

type provider struct {
	store *Store
}

var _ driven.VectorStoreProvider = (*provider)(nil)

// Open returns the named collection, creating it if needed.
func (p *provider) Open(_ context.Context, name string, dimensions int) (driven.VectorStore, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	c := p.store.collectionLocked(name, true)
	if dimensions > 0 {
		c.dimensions = dimensions
	}
	return &vectorStore{store: p.store, name: name}, nil
}

// Collections lists collections ordered by name.
func (p *provider) Collections(_ context.Context) ([]domain.CollectionInfo, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	infos := make([]domain.CollectionInfo, 0, len(p.store.collections))
	for name, c := range p.store.collections {
		info := domain.CollectionInfo{Name: name, Documents: len(c.active)}
		for docID := range c.active {
			info.Records += len(c.activeRecords(docID))
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DropCollection removes a collection and its documents.
func (p *provider) DropCollection(_ context.Context, name string) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	if _, ok := p.store.collections[name]; !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	delete(p.store.collections, name)
	delete(p.store.documents, name)
	return nil
}

// ==================== Vector Store ====================

type vectorStore struct {
	store *Store
	name  string
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Name returns the collection name.
func (v *vectorStore) Name() string {
	return v.name
}

// Dimensions returns the configured embedding dimension.
func (v *vectorStore) Dimensions() int {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	if c := v.store.collectionLocked(v.name, false); c != nil {
		return c.dimensions
	}
	return 0
}

// Upsert writes records. A dropped collection is recreated.
func (v *vectorStore) Upsert(_ context.Context, records ...domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	c := v.store.collectionLocked(v.name, true)
	dims := c.dimensions
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

	c.dimensions = dims
	for _, r := range records {
		versions, ok := c.records[r.DocumentID]
		if !ok {
			versions = make(map[string]map[string]domain.VectorRecord)
			c.records[r.DocumentID] = versions
		}
		chunks, ok := versions[r.Version]
		if !ok {
			chunks = make(map[string]domain.VectorRecord)
			versions[r.Version] = chunks
		}
		r.Vector = append([]float32(nil), r.Vector...)
		chunks[r.ChunkID] = r
	}
	return nil
}

// Query ranks the active records by cosine similarity to vector.
func (v *vectorStore) Query(_ context.Context, vector []float32, opts driven.QueryOptions) ([]domain.ScoredRecord, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	c := v.store.collectionLocked(v.name, false)
	if c == nil {
		return []domain.ScoredRecord{}, nil
	}

	var candidates []domain.VectorRecord
	for docID := range c.active {
		if opts.DocumentID != "" && docID != opts.DocumentID {
			continue
		}
		for _, r := range c.activeRecords(docID) {
			candidates = append(candidates, r)
		}
	}

	return vectorsearch.Rank(candidates, vector, opts.Model, opts.K), nil
}

// Activate points the document at version and purges the version it replaces.
func (v *vectorStore) Activate(_ context.Context, documentID, version string, expected int) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	c := v.store.collectionLocked(v.name, true)
	if staged := len(c.records[documentID][version]); staged != expected {
		return fmt.Errorf("%w: %s version %s has %d of %d records",
			domain.ErrIncompleteVersion, documentID, version, staged, expected)
	}

	previous, ok := c.active[documentID]
	c.active[documentID] = version
	if ok && previous != version {
		delete(c.records[documentID], previous)
	}
	return nil
}

// Discard removes a staged version. The active version is never discarded.
func (v *vectorStore) Discard(_ context.Context, documentID, version string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	c := v.store.collectionLocked(v.name, false)
	if c == nil || c.active[documentID] == version {
		return nil
	}
	delete(c.records[documentID], version)
	if len(c.records[documentID]) == 0 {
		delete(c.records, documentID)
	}
	return nil
}

// DeleteDocument removes every version of a document.
func (v *vectorStore) DeleteDocument(_ context.Context, documentID string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if c := v.store.collectionLocked(v.name, false); c != nil {
		delete(c.records, documentID)
		delete(c.active, documentID)
	}
	return nil
}

// Count returns the number of visible records.
func (v *vectorStore) Count(_ context.Context, documentID string) (int, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	c := v.store.collectionLocked(v.name, false)
	if c == nil {
		return 0, nil
	}
	if documentID != "" {
		return len(c.activeRecords(documentID)), nil
	}
	n := 0
	for docID := range c.active {
		n += len(c.activeRecords(docID))
	}
	return n, nil
}

// ==================== Document Store ====================

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or replaces a document. Text and page offsets are dropped
// to match the durable store.
func (d *documentStore) SaveDocument(_ context.Context, collection string, doc *domain.Document, chunks int) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	saved := domain.Document{
		ID:        doc.ID,
		Name:      doc.Name,
		Format:    doc.Format,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
	}
	if saved.Metadata.PageCount == 0 {
		saved.Metadata.PageCount = len(doc.Pages)
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}

	docs, ok := d.store.documents[collection]
	if !ok {
		docs = make(map[string]storedDocument)
		d.store.documents[collection] = docs
	}
	docs[doc.ID] = storedDocument{doc: saved, chunks: chunks}
	return nil
}

// GetDocument retrieves a document's metadata.
func (d *documentStore) GetDocument(_ context.Context, collection, id string) (*domain.Document, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	if stored, ok := d.store.documents[collection][id]; ok {
		doc := stored.doc
		return &doc, nil
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
}

// ListDocuments returns document summaries ordered by name.
func (d *documentStore) ListDocuments(_ context.Context, collection string) ([]domain.SourceInfo, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	docs := d.store.documents[collection]
	infos := make([]domain.SourceInfo, 0, len(docs))
	for _, stored := range docs {
		infos = append(infos, domain.SourceInfo{
			DocumentID: stored.doc.ID,
			Name:       stored.doc.Name,
			Format:     stored.doc.Format,
			Pages:      stored.doc.Metadata.PageCount,
			Chunks:     stored.chunks,
			IngestedAt: stored.doc.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].DocumentID < infos[j].DocumentID
	})
	return infos, nil
}

// DeleteDocument removes a document's metadata.
func (d *documentStore) DeleteDocument(_ context.Context, collection, id string) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	if _, ok := d.store.documents[collection][id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(d.store.documents[collection], id)
	return nil
}
