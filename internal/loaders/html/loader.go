// Package html provides a Loader for HTML documents.
// It strips tags, scripts and styles, decodes entities, and treats
// each <hr> separated part as a page.
package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders/pages"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles HTML documents.
type Loader struct{}

// New creates a new HTML loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the document format this loader parses.
func (l *Loader) Format() domain.Format {
	return domain.FormatHTML
}

// MIMETypes returns the MIME types this loader handles.
func (l *Loader) MIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Load extracts readable text from the markup.
func (l *Loader) Load(_ context.Context, name string, data []byte) (*domain.Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrUnsupportedFormat, name)
	}

	content := string(data)
	parts := hrTags.Split(stripInvisible(content), -1)
	texts := make([]string, len(parts))
	for i, part := range parts {
		texts[i] = stripHTML(part)
	}

	doc, err := pages.Build(name, domain.FormatHTML, texts)
	if err != nil {
		return nil, err
	}
	doc.Metadata.Title = extractTitle(content, name)
	doc.Metadata.MIMEType = "text/html"
	return doc, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr[^>]*>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// extractTitle returns the <title> text or falls back to the file name.
func extractTitle(content, name string) string {
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	return pages.TitleFromName(name)
}

// stripInvisible removes elements that never contribute readable text.
func stripInvisible(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	return htmlComments.ReplaceAllString(content, "")
}

// stripHTML turns markup into paragraphs separated by blank lines.
func stripHTML(content string) string {
	// Source line breaks are layout, not content.
	content = whitespace.ReplaceAllString(content, " ")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	var paragraphs []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
