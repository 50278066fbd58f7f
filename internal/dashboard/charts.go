package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/tariff"
	"github.com/mwiater/tariffadvisor/internal/util"
)

const (
	maxLabelWidth = 18
	minBarWidth   = 10
	barGlyph      = "█"
	noDataMessage = "No data to display."
)

var (
	chargedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	reciprocalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	chartTitleStyle = lipgloss.NewStyle().Bold(true)
	legendStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// series is one bar per row in a chart.
type series struct {
	name  string
	style lipgloss.Style
	value func(domain.TariffRow) float64
}

var (
	chargedSeries = series{
		name:  "Tariffs charged to U.S.A.",
		style: chargedStyle,
		value: func(r domain.TariffRow) float64 { return r.TariffsChargedToUSA },
	}
	reciprocalSeries = series{
		name:  "U.S. reciprocal tariffs",
		style: reciprocalStyle,
		value: func(r domain.TariffRow) float64 { return r.USAReciprocalTariffs },
	}
)

// renderBarChart draws a horizontal bar chart. Rows are ordered by the first
// series, highest first; each row gets one bar per series.
func renderBarChart(title string, rows []domain.TariffRow, width int, all ...series) string {
	var b strings.Builder
	b.WriteString(chartTitleStyle.Render(title))
	b.WriteString("\n")
	if len(rows) == 0 || len(all) == 0 {
		b.WriteString(legendStyle.Render("  " + noDataMessage))
		return b.String()
	}

	sorted := append([]domain.TariffRow(nil), rows...)
	primary := all[0].value
	sort.SliceStable(sorted, func(i, j int) bool { return primary(sorted[i]) > primary(sorted[j]) })

	names := make([]string, len(sorted))
	var peak float64
	for i, r := range sorted {
		names[i] = r.Country
		for _, s := range all {
			if v := s.value(r); v > peak {
				peak = v
			}
		}
	}
	labelWidth := util.LongestRunes(names, maxLabelWidth)
	barWidth := width - labelWidth - 12
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	for _, r := range sorted {
		for si, s := range all {
			label := strings.Repeat(" ", labelWidth)
			if si == 0 {
				label = util.PadRight(r.Country, labelWidth)
			}
			v := s.value(r)
			bar := strings.Repeat(barGlyph, util.ScaleBar(v, peak, barWidth))
			fmt.Fprintf(&b, "  %s %s %s%%\n", label, s.style.Render(bar), tariff.FormatPercent(v))
		}
	}
	if len(all) > 1 {
		legend := make([]string, len(all))
		for i, s := range all {
			legend[i] = s.style.Render(barGlyph) + " " + legendStyle.Render(s.name)
		}
		b.WriteString("  " + strings.Join(legend, "   ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
