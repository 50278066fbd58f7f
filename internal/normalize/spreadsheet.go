package normalize

import (
	"fmt"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/table"
	"github.com/xuri/excelize/v2"
)

// readSpreadsheet loads the first worksheet; its first row is the header.
func readSpreadsheet(path string) (table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table.Table{}, &domain.ParseError{Source: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.Table{}, &domain.ParseError{Source: path, Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table.Table{}, &domain.ParseError{Source: path, Err: fmt.Errorf("read sheet %s: %w", sheets[0], err)}
	}
	t, err := table.FromRecords(rows)
	if err != nil {
		return table.Table{}, &domain.ParseError{Source: path, Err: err}
	}
	return t, nil
}
