// Package markdown provides a Loader for Markdown documents.
// Each top-level heading starts a new section, which is treated as a page.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders/pages"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles Markdown documents.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the document format this loader parses.
func (l *Loader) Format() domain.Format {
	return domain.FormatMarkdown
}

// MIMETypes returns the MIME types this loader handles.
func (l *Loader) MIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Load strips Markdown formatting and splits sections into pages.
func (l *Loader) Load(_ context.Context, name string, data []byte) (*domain.Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrUnsupportedFormat, name)
	}

	raw := string(data)
	sections := splitSections(raw)
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = stripMarkdown(s)
	}

	doc, err := pages.Build(name, domain.FormatMarkdown, texts)
	if err != nil {
		return nil, err
	}
	doc.Metadata.Title = extractTitle(raw, name)
	doc.Metadata.MIMEType = "text/markdown"
	return doc, nil
}

var (
	topHeading    = regexp.MustCompile(`(?m)^# `)
	fencedCode    = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|_)(\S[^*_]*?)(\*\*|__|\*|_)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	horizontal    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// splitSections cuts the document before every top-level heading.
func splitSections(content string) []string {
	idx := topHeading.FindAllStringIndex(content, -1)
	if len(idx) == 0 {
		return []string{content}
	}

	var sections []string
	if pre := content[:idx[0][0]]; strings.TrimSpace(pre) != "" {
		sections = append(sections, pre)
	}
	for i, loc := range idx {
		end := len(content)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		sections = append(sections, content[loc[0]:end])
	}
	return sections
}

// extractTitle returns the first H1 heading or falls back to the file name.
func extractTitle(content, name string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return pages.TitleFromName(name)
}

// stripMarkdown removes common formatting while keeping sentences intact.
func stripMarkdown(content string) string {
	content = fencedCode.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
