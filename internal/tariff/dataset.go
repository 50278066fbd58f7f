// Package tariff loads the per-country tariff dataset and answers the lookups the
// dashboard and HTTP API need: country lists, filtering, summaries and top-N views.
package tariff

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/table"
)

// AllCountries is the selection sentinel meaning "every row".
const AllCountries = "All Countries"

// Dataset is an immutable, cleaned copy of the tariff table.
type Dataset struct {
	source string
	table  table.Table
	rows   []domain.TariffRow
}

// Load reads a .csv file or an http(s) URL returning a JSON array of rows.
func Load(ctx context.Context, source string, client *http.Client) (*Dataset, error) {
	lower := strings.ToLower(strings.TrimSpace(source))
	var (
		t   table.Table
		err error
	)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		t, err = table.ReadCSVFile(source)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		t, err = table.FetchJSON(ctx, client, source)
	default:
		return nil, &domain.UnsupportedSourceError{Input: source}
	}
	if err != nil {
		return nil, err
	}
	return FromTable(t, source)
}

// FromTable cleans the percentage columns of t and builds the rows. A tariff
// column missing from t leaves the matching field at zero.
func FromTable(t table.Table, source string) (*Dataset, error) {
	if t.Index(domain.ColumnCountry) < 0 {
		return nil, &domain.ParseError{Source: source, Err: errors.New("missing Country column")}
	}

	cleaned := table.Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		cleaned.Rows = append(cleaned.Rows, append([]string(nil), row...))
	}
	if err := cleaned.CleanPercent(domain.PercentColumns...); err != nil {
		return nil, err
	}

	chargedCol := domain.ColumnTariffsChargedToUSA
	if cleaned.Index(chargedCol) < 0 {
		chargedCol = domain.ColumnTariffsCharged2USA
	}

	rows := make([]domain.TariffRow, 0, cleaned.Len())
	for i := range cleaned.Rows {
		rows = append(rows, domain.TariffRow{
			Country:              strings.TrimSpace(cleaned.Value(i, domain.ColumnCountry)),
			TariffsChargedToUSA:  parseCleaned(cleaned.Value(i, chargedCol)),
			USAReciprocalTariffs: parseCleaned(cleaned.Value(i, domain.ColumnUSAReciprocalTariffs)),
		})
	}
	return &Dataset{source: source, table: cleaned, rows: rows}, nil
}

// NewDataset builds a dataset directly from rows.
func NewDataset(rows []domain.TariffRow) *Dataset {
	t := table.Table{Columns: []string{domain.ColumnCountry, domain.ColumnTariffsChargedToUSA, domain.ColumnUSAReciprocalTariffs}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Country,
			strconv.FormatFloat(r.TariffsChargedToUSA, 'f', -1, 64),
			strconv.FormatFloat(r.USAReciprocalTariffs, 'f', -1, 64),
		})
	}
	return &Dataset{source: "memory", table: t, rows: append([]domain.TariffRow(nil), rows...)}
}

// parseCleaned reads a value CleanPercent already validated; empty cells are zero.
func parseCleaned(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func (d *Dataset) Source() string { return d.source }

func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns a copy of every row in file order.
func (d *Dataset) Rows() []domain.TariffRow {
	return append([]domain.TariffRow(nil), d.rows...)
}

// Table returns the cleaned table, suitable for rendering into index chunks.
func (d *Dataset) Table() table.Table {
	return d.table
}

// Countries returns AllCountries followed by the distinct non-empty country names, sorted.
func (d *Dataset) Countries() []string {
	seen := make(map[string]bool, len(d.rows))
	var names []string
	for _, r := range d.rows {
		if r.Country == "" || seen[r.Country] {
			continue
		}
		seen[r.Country] = true
		names = append(names, r.Country)
	}
	sort.Strings(names)
	return append([]string{AllCountries}, names...)
}

// ByCountry returns every row when names contains AllCountries, otherwise the
// rows whose country is in names, in file order.
func (d *Dataset) ByCountry(names []string) []domain.TariffRow {
	if containsAll(names) {
		return d.Rows()
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []domain.TariffRow
	for _, r := range d.rows {
		if want[r.Country] {
			out = append(out, r)
		}
	}
	return out
}

// TopN sorts rows by TariffsChargedToUSA, highest first, and keeps the first n.
// A non-positive n keeps every row. The input is not modified.
func TopN(rows []domain.TariffRow, n int) []domain.TariffRow {
	out := append([]domain.TariffRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TariffsChargedToUSA > out[j].TariffsChargedToUSA
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func containsAll(names []string) bool {
	for _, n := range names {
		if n == AllCountries {
			return true
		}
	}
	return false
}
