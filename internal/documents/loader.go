package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// Load turns an uploaded file into a Document, choosing the reader by file
// extension. Scanned PDFs carry no text layer and come back as
// ErrEmptyDocument; other binary formats return ErrUnsupportedDocument.
func Load(name string, data []byte) (Document, error) {
	format, err := formatOf(name)
	if err != nil {
		return Document{}, err
	}

	var content string
	switch format {
	case FormatText, FormatMarkdown:
		if !utf8.Valid(data) {
			return Document{}, fmt.Errorf("%w: %s is not valid UTF-8 text", ErrUnsupportedDocument, name)
		}
		content = string(data)
	case FormatDocx:
		content, err = docxText(data)
		if err != nil {
			return Document{}, fmt.Errorf("read %s: %w", name, err)
		}
	case FormatPDF:
		content, err = pdfText(data)
		if err != nil {
			return Document{}, fmt.Errorf("read %s: %w", name, err)
		}
	}

	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	return Document{
		ID:        uuid.NewString(),
		Name:      filepath.Base(name),
		Format:    format,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Supported reports whether name has an extension Load can read.
func Supported(name string) bool {
	_, err := formatOf(name)
	return err == nil
}

func formatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".docx":
		return FormatDocx, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, filepath.Base(name))
}

type docxBody struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

// docxText extracts paragraph text from word/document.xml.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive", ErrUnsupportedDocument)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		var doc docxBody
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		var b strings.Builder
		for i, p := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, r := range p.Runs {
				for _, t := range r.Text {
					b.WriteString(t.Content)
				}
			}
		}
		return b.String(), nil
	}

	return "", fmt.Errorf("%w: missing word/document.xml", ErrUnsupportedDocument)
}

// pdfText extracts the text layer of every page. The reader panics on some
// malformed files, so a panic is reported as an unreadable document.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", ErrUnsupportedDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(raw), nil
}
