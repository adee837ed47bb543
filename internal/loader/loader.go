// Package loader turns files into page-level documents.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/josinaldojr/pdfrag/internal/rag"
)

// Load reads path according to its extension: PDFs page by page, HTML and
// plain text as a single page.
func Load(path string) (rag.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return rag.Document{}, fmt.Errorf("open %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return LoadPDF(path)
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return rag.Document{}, fmt.Errorf("read %s: %w", path, err)
		}
		return singlePage(path, ExtractHTMLText(string(data))), nil
	case ".txt", ".md", ".text", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return rag.Document{}, fmt.Errorf("read %s: %w", path, err)
		}
		return singlePage(path, string(data)), nil
	default:
		return rag.Document{}, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func singlePage(source, text string) rag.Document {
	return rag.Document{
		Source: source,
		Pages:  []rag.Page{{Number: 1, Text: SanitizeUTF8(text)}},
	}
}

// SanitizeUTF8 drops invalid UTF-8 bytes; Postgres rejects them in text columns.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
