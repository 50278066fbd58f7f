package tariff

import (
	"fmt"
	"strconv"
	"strings"
)

// MultipleCountriesPlaceholder is shown instead of a summary when the selection
// is not exactly one country.
const MultipleCountriesPlaceholder = "Showing data for multiple countries."

// TopNChoice is one entry of the top-N selector. Limit 0 means every row.
type TopNChoice struct {
	Label string
	Limit int
}

// TopNChoices are the selector entries offered by the dashboard.
var TopNChoices = []TopNChoice{
	{Label: "10", Limit: 10},
	{Label: "20", Limit: 20},
	{Label: "50", Limit: 50},
	{Label: "All", Limit: 0},
}

// SummaryFor describes a single selected country, or returns the placeholder
// when zero or several countries (or AllCountries) are selected.
func (d *Dataset) SummaryFor(names []string) string {
	if len(names) != 1 || containsAll(names) {
		return MultipleCountriesPlaceholder
	}
	rows := d.ByCountry(names)
	if len(rows) == 0 {
		return fmt.Sprintf("No data found for %s.", names[0])
	}
	r := rows[0]
	return fmt.Sprintf("%s\nTariffs Charged to U.S.A.: %s%%\nU.S. Reciprocal Tariffs: %s%%",
		r.Country, FormatPercent(r.TariffsChargedToUSA), FormatPercent(r.USAReciprocalTariffs))
}

// DisplayName is the heading used for a selection.
func DisplayName(names []string) string {
	if len(names) != 1 || containsAll(names) {
		return "multiple countries"
	}
	return names[0]
}

// FormatPercent renders v with at least one decimal place: 26 -> "26.0", 12.5 -> "12.5".
func FormatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
