package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders/docx"
	"github.com/custodia-labs/studymate/internal/loaders/html"
	"github.com/custodia-labs/studymate/internal/loaders/markdown"
	"github.com/custodia-labs/studymate/internal/loaders/pdf"
	"github.com/custodia-labs/studymate/internal/loaders/plaintext"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry maps formats, extensions and MIME types to loaders.
type Registry struct {
	mu         sync.RWMutex
	loaders    map[domain.Format]driven.Loader
	extensions map[string]domain.Format
	mimeTypes  map[string]domain.Format
	maxBytes   int64
}

// NewRegistry creates an empty registry. A positive maxBytes rejects
// larger uploads with domain.ErrDocumentTooLarge.
func NewRegistry(maxBytes int64) *Registry {
	return &Registry{
		loaders:    make(map[domain.Format]driven.Loader),
		extensions: make(map[string]domain.Format),
		mimeTypes:  make(map[string]domain.Format),
		maxBytes:   maxBytes,
	}
}

// Defaults creates a registry with every built-in loader registered.
func Defaults(maxBytes int64) *Registry {
	r := NewRegistry(maxBytes)
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a loader, replacing any loader for the same format.
func (r *Registry) Register(loader driven.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	format := loader.Format()
	r.loaders[format] = loader
	for _, ext := range loader.Extensions() {
		r.extensions[strings.ToLower(ext)] = format
	}
	for _, mt := range loader.MIMETypes() {
		r.mimeTypes[mt] = format
	}
}

// Detect resolves the format from the file extension, falling back to
// content sniffing. Sniffing walks from the most specific MIME type to
// its parents, so an HTML file is not mistaken for plain text.
func (r *Registry) Detect(name string, data []byte) (domain.Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if format, ok := r.extensions[ext]; ok {
			return format, nil
		}
	}

	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		for known, format := range r.mimeTypes {
			if mt.Is(known) {
				return format, nil
			}
		}
	}

	return "", fmt.Errorf("%w: cannot determine format of %s", domain.ErrUnsupportedFormat, name)
}

// Load extracts a document. An empty format triggers detection.
func (r *Registry) Load(ctx context.Context, name string, data []byte, format domain.Format) (*domain.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrUnsupportedFormat, name)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrDocumentTooLarge, name, len(data), r.maxBytes)
	}

	if format == "" {
		detected, err := r.Detect(name, data)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	r.mu.RLock()
	loader, ok := r.loaders[format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	logger.Debug("loading %s as %s (%d bytes)", name, format, len(data))

	doc, err := loader.Load(ctx, name, data)
	if err != nil {
		return nil, err
	}
	doc.Metadata.SizeBytes = int64(len(data))
	if doc.Metadata.MIMEType == "" {
		doc.Metadata.MIMEType = mimetype.Detect(data).String()
	}
	return doc, nil
}

// Formats lists the registered formats in name order.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.loaders))
	for f := range r.loaders {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
