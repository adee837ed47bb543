package loader

import (
	"fmt"

	pdf "github.com/dslipak/pdf"

	"github.com/josinaldojr/pdfrag/internal/rag"
)

// LoadPDF extracts plain text page by page. Pages are numbered from 1; pages
// without a content stream are skipped.
func LoadPDF(path string) (doc rag.Document, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf %s: %v", path, r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return rag.Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}

	doc.Source = path
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return rag.Document{}, fmt.Errorf("read page %d of %s: %w", i, path, err)
		}
		doc.Pages = append(doc.Pages, rag.Page{Number: i, Text: SanitizeUTF8(text)})
	}
	return doc, nil
}
