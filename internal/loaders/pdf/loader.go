// Package pdf provides a Loader for PDF documents backed by ledongthuc/pdf.
// Each PDF page becomes one document page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders/pages"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

var magic = []byte("%PDF")

// Loader handles PDF documents.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the document format this loader parses.
func (l *Loader) Format() domain.Format {
	return domain.FormatPDF
}

// MIMETypes returns the MIME types this loader handles.
func (l *Loader) MIMETypes() []string {
	return []string{"application/pdf"}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load extracts the plain text of every page. Pages without text keep
// their number so page citations match the file.
func (l *Loader) Load(ctx context.Context, name string, data []byte) (doc *domain.Document, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), magic) {
		return nil, fmt.Errorf("%w: %s has no PDF header", domain.ErrUnsupportedFormat, name)
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: corrupt pdf: %v", domain.ErrUnsupportedFormat, name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedFormat, name, err)
	}

	total := reader.NumPage()
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrExtraction, name, i, err)
		}
		texts = append(texts, text)
	}

	doc, err = pages.Build(name, domain.FormatPDF, texts)
	if err != nil {
		return nil, err
	}

	doc.Metadata.MIMEType = "application/pdf"
	applyInfo(&doc.Metadata, reader.Trailer().Key("Info"))
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = pages.TitleFromName(name)
	}
	return doc, nil
}

// applyInfo copies the document information dictionary into the metadata.
func applyInfo(meta *domain.DocumentMetadata, info pdf.Value) {
	if info.IsNull() {
		return
	}
	meta.Title = strings.TrimSpace(info.Key("Title").Text())
	meta.Author = strings.TrimSpace(info.Key("Author").Text())
	meta.Subject = strings.TrimSpace(info.Key("Subject").Text())
	meta.Keywords = strings.TrimSpace(info.Key("Keywords").Text())
	if created, ok := parseDate(info.Key("CreationDate").Text()); ok {
		meta.CreatedAt = &created
	}
}

// parseDate parses a PDF date string such as "D:20240301101500Z".
// Only the date and time fields are read; timezone offsets are ignored.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	layouts := []struct {
		width  int
		layout string
	}{
		{14, "20060102150405"},
		{12, "200601021504"},
		{8, "20060102"},
		{4, "2006"},
	}
	for _, l := range layouts {
		if len(s) < l.width {
			continue
		}
		if t, err := time.Parse(l.layout, s[:l.width]); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
