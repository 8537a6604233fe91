// Package loaders turns uploaded bytes into domain documents.
//
// Each sub-package implements driven.Loader for one format. The Registry
// detects the format of an upload from its file extension and content,
// enforces the upload size limit and dispatches to the matching loader.
//
// Supported formats:
//
//	pdf       - ledongthuc/pdf, one page per PDF page
//	docx      - word/document.xml, explicit page breaks split pages
//	markdown  - top-level headings split sections
//	html      - <hr> splits sections, markup stripped
//	text      - form feeds split pages
package loaders
