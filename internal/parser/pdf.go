package parser

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Parser turns a stored file into the plain text of each of its pages.
type Parser interface {
	ExtractPages(path string) ([]string, error)
}

type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) ExtractPages(path string) ([]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		pages = append(pages, content)
	}
	return pages, nil
}

// IsPDF reports whether filename carries a .pdf extension, ignoring case.
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".pdf")
}
