package normalize

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/mwiater/tariffadvisor/internal/domain"
)

// pdfPages returns the plain text of every page in order. Pages without
// content come back as empty strings so page numbering stays intact.
func pdfPages(path string) (pages []string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &domain.ParseError{Source: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &domain.ParseError{Source: path, Err: err}
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &domain.ParseError{Source: fmt.Sprintf("%s page %d", path, i), Err: err}
		}
		pages = append(pages, text)
	}
	return pages, nil
}
