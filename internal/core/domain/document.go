package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Format identifies the declared or detected type of an uploaded document.
type Format string

// Supported document formats.
const (
	FormatPDF      Format = "pdf"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// Document is the extracted form of an uploaded file.
// It is immutable once the loader returns it.
type Document struct {
	// ID is derived from the collection and source name.
	ID string

	// Name is the source name shown in citations (usually the file name).
	Name string

	// Format is the format the loader parsed.
	Format Format

	// Pages are the ordered page or section boundaries within Text.
	Pages []Page

	// Text is the full extracted text. Pages are joined by a blank line.
	Text string

	// Metadata holds extraction metadata.
	Metadata DocumentMetadata

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Page is a page or section boundary expressed in rune offsets into Document.Text.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Start is the inclusive rune offset.
	Start int

	// End is the exclusive rune offset.
	End int
}

// DocumentMetadata is what the loader could learn about the file.
type DocumentMetadata struct {
	PageCount int
	Title     string
	Author    string
	Subject   string
	Keywords  string
	MIMEType  string
	SizeBytes int64

	// CreatedAt is the creation date recorded in the file, if any.
	CreatedAt *time.Time
}

// DocumentID returns the deterministic identifier for a source name within a collection.
// Re-uploading the same name yields the same ID, so the upload replaces the old one.
func DocumentID(collection, name string) string {
	sum := sha256.Sum256([]byte(collection + "\x00" + name))
	return hex.EncodeToString(sum[:8])
}

// PageAt returns the page number containing the rune offset.
// Offsets that fall between pages resolve to the following page.
func (d *Document) PageAt(offset int) int {
	if len(d.Pages) == 0 {
		return 1
	}
	for _, p := range d.Pages {
		if offset < p.End {
			return p.Number
		}
	}
	return d.Pages[len(d.Pages)-1].Number
}

// Chunk is a bounded contiguous span of a document's text.
type Chunk struct {
	// ID is "<document id>:<position>", stable across re-ingestion.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Start and End are rune offsets into Document.Text.
	Start int
	End   int

	// PageStart and PageEnd are the pages the span touches.
	PageStart int
	PageEnd   int

	// Text is the chunk content.
	Text string
}

// ChunkID builds the identifier of the chunk at position in a document.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s:%d", documentID, position)
}

// SourceInfo summarises an ingested document for listing.
type SourceInfo struct {
	DocumentID string
	Name       string
	Format     Format
	Pages      int
	Chunks     int
	IngestedAt time.Time
}
