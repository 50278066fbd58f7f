package normalize

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/table"
)

// Normalizer reads sources into chunks. The zero value uses http.DefaultClient.
type Normalizer struct {
	Client *http.Client
}

// New returns a Normalizer that fetches API sources with client.
func New(client *http.Client) *Normalizer {
	return &Normalizer{Client: client}
}

// Normalize produces the chunks for src in source order.
func (n *Normalizer) Normalize(ctx context.Context, src Source) ([]domain.Chunk, error) {
	switch src.Kind {
	case KindCSV, KindExcel, KindAPI:
		tbl, err := n.readTable(ctx, src)
		if err != nil {
			return nil, err
		}
		if err := tbl.CleanPercent(domain.PercentColumns...); err != nil {
			return nil, err
		}
		return TableChunks(tbl), nil
	case KindPDF:
		units, err := pdfPages(src.Location)
		if err != nil {
			return nil, err
		}
		return DocumentChunks(units), nil
	case KindWord:
		units, err := docxParagraphs(src.Location)
		if err != nil {
			return nil, err
		}
		return DocumentChunks(units), nil
	case KindPPT:
		units, err := pptxShapes(src.Location)
		if err != nil {
			return nil, err
		}
		return DocumentChunks(units), nil
	default:
		return nil, &domain.UnsupportedSourceError{Input: src.Location}
	}
}

func (n *Normalizer) readTable(ctx context.Context, src Source) (table.Table, error) {
	switch src.Kind {
	case KindCSV:
		return table.ReadCSVFile(src.Location)
	case KindExcel:
		return readSpreadsheet(src.Location)
	case KindAPI:
		return table.FetchJSON(ctx, n.Client, src.Location)
	}
	return table.Table{}, &domain.UnsupportedSourceError{Input: src.Location}
}

// TableChunks renders one chunk per row with ids row-0, row-1, ...
func TableChunks(t table.Table) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, t.Len())
	for i := range t.Rows {
		chunks = append(chunks, domain.Chunk{
			ID:   fmt.Sprintf("row-%d", i),
			Text: t.RenderRow(i),
		})
	}
	return chunks
}

// DocumentChunks keeps the non-blank units, trimmed, with ids doc-0, doc-1, ...
// numbered over the kept units only.
func DocumentChunks(units []string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, u := range units {
		text := strings.TrimSpace(u)
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:   fmt.Sprintf("doc-%d", len(chunks)),
			Text: text,
		})
	}
	return chunks
}
