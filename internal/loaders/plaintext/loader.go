// Package plaintext provides a Loader for plain text documents.
// Form feed characters split the text into pages.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders/pages"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles plain text documents.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the document format this loader parses.
func (l *Loader) Format() domain.Format {
	return domain.FormatText
}

// MIMETypes returns the MIME types this loader handles.
func (l *Loader) MIMETypes() []string {
	return []string{"text/plain", "text/csv"}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".txt", ".text", ".csv"}
}

// Load splits the text on form feeds into pages.
func (l *Loader) Load(_ context.Context, name string, data []byte) (*domain.Document, error) {
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrUnsupportedFormat, name)
	}

	doc, err := pages.Build(name, domain.FormatText, strings.Split(string(data), "\f"))
	if err != nil {
		return nil, err
	}
	doc.Metadata.Title = pages.TitleFromName(name)
	doc.Metadata.MIMEType = "text/plain"
	return doc, nil
}
