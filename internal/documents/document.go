// Package documents loads user documents, splits them into passages and
// answers keyword searches over them.
package documents

import (
	"errors"
	"time"
)

var (
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrEmptyDocument       = errors.New("document has no text")
)

type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatDocx     Format = "docx"
	FormatPDF      Format = "pdf"
)

type Document struct {
	ID        string
	Name      string
	Format    Format
	Content   string
	CreatedAt time.Time
}

// Chunk is one searchable passage of a document.
type Chunk struct {
	ID         string
	DocumentID string
	Position   int
	Content    string
}
