// Package pages assembles loader output into a domain.Document.
package pages

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Separator joins consecutive pages in Document.Text.
const Separator = "\n\n"

// Build joins page texts into a document and records rune offsets per page.
// Blank pages keep their number so citations match the original file.
// It fails with domain.ErrExtraction when every page is blank.
func Build(name string, format domain.Format, texts []string) (*domain.Document, error) {
	doc := &domain.Document{
		Name:   name,
		Format: format,
		Pages:  make([]domain.Page, 0, len(texts)),
	}

	var b strings.Builder
	offset := 0
	hasText := false
	for i, t := range texts {
		t = Clean(t)
		if strings.TrimSpace(t) != "" {
			hasText = true
		}
		if i > 0 {
			b.WriteString(Separator)
			offset += utf8.RuneCountInString(Separator)
		}
		n := utf8.RuneCountInString(t)
		doc.Pages = append(doc.Pages, domain.Page{Number: i + 1, Start: offset, End: offset + n})
		b.WriteString(t)
		offset += n
	}

	if !hasText {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtraction, name)
	}

	doc.Text = b.String()
	doc.Metadata.PageCount = len(texts)
	return doc, nil
}

// Clean normalises line endings and trims surrounding blank space.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// TitleFromName derives a human-readable title from a file name.
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
