// Package docx provides a Loader for Word (.docx) documents.
// Explicit page breaks in the document body start a new page.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders/pages"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

const mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Loader handles DOCX documents.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the document format this loader parses.
func (l *Loader) Format() domain.Format {
	return domain.FormatDOCX
}

// MIMETypes returns the MIME types this loader handles.
func (l *Loader) MIMETypes() []string {
	return []string{mimeType}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".docx"}
}

// Load extracts paragraph text from word/document.xml.
func (l *Loader) Load(_ context.Context, name string, data []byte) (*domain.Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive: %w", domain.ErrUnsupportedFormat, name, err)
	}

	body, err := readFile(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedFormat, name, err)
	}

	texts, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedFormat, name, err)
	}

	doc, err := pages.Build(name, domain.FormatDOCX, texts)
	if err != nil {
		return nil, err
	}

	doc.Metadata.MIMEType = mimeType
	doc.Metadata.Title = pages.TitleFromName(name)
	if core, err := readFile(reader, "docProps/core.xml"); err == nil {
		applyCoreProperties(&doc.Metadata, core)
	}
	return doc, nil
}

var errMissingPart = errors.New("missing archive part")

// readFile returns the contents of a named archive member.
func readFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s", errMissingPart, name)
}

// parseDocumentXML walks the body and returns the text of each page.
// Paragraphs are separated by blank lines.
func parseDocumentXML(content []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var (
		texts     []string
		page      []string
		paragraph strings.Builder
		inText    bool
	)
	flushParagraph := func() {
		if p := strings.TrimSpace(paragraph.String()); p != "" {
			page = append(page, p)
		}
		paragraph.Reset()
	}
	flushPage := func() {
		flushParagraph()
		texts = append(texts, strings.Join(page, "\n\n"))
		page = nil
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				paragraph.WriteString("\t")
			case "br":
				if attr(t, "type") == "page" {
					flushPage()
				} else {
					paragraph.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushParagraph()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}
	flushPage()

	return texts, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Keywords string `xml:"keywords"`
	Created  string `xml:"created"`
}

// applyCoreProperties copies document properties into the metadata.
func applyCoreProperties(meta *domain.DocumentMetadata, content []byte) {
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return
	}
	if title := strings.TrimSpace(core.Title); title != "" {
		meta.Title = title
	}
	meta.Subject = strings.TrimSpace(core.Subject)
	meta.Author = strings.TrimSpace(core.Creator)
	meta.Keywords = strings.TrimSpace(core.Keywords)
	if created, err := time.Parse(time.RFC3339, strings.TrimSpace(core.Created)); err == nil {
		meta.CreatedAt = &created
	}
}
