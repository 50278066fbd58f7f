// internal/cli/tariff.go
package tariffadvisor

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/tariff"
)

var tariffCmd = &cobra.Command{
	Use:   "tariff",
	Short: "Explore the tariff dataset",
}

var tariffShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print tariffs for the selected countries",
	Long: `The 'tariff show' command prints the selected countries' rows, highest tariff
first, followed by the summary for a single selected country.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		countries, _ := cmd.Flags().GetStringSlice("country")
		top, _ := cmd.Flags().GetInt("top")
		return runTariffShow(cmd.Context(), cmd.OutOrStdout(), cfg, countries, top)
	},
}

var tariffCountriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries in the dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		for _, name := range ds.Countries() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	tariffShowCmd.Flags().StringSlice("country", []string{tariff.AllCountries}, "country to show (repeatable or comma separated)")
	tariffShowCmd.Flags().Int("top", 0, "only the N highest tariffs (0 for all)")
	tariffCmd.AddCommand(tariffShowCmd, tariffCountriesCmd)
	rootCmd.AddCommand(tariffCmd)
}

func runTariffShow(ctx context.Context, out io.Writer, cfg appconfig.Config, countries []string, top int) error {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return err
	}
	rows := tariff.TopN(ds.ByCountry(countries), top)

	fmt.Fprintf(out, "Viewing insights for %s\n\n", tariff.DisplayName(countries))
	if len(rows) == 0 {
		fmt.Fprintln(out, "No data to display.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COUNTRY\tCHARGED TO U.S.A.\tU.S. RECIPROCAL")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s%%\t%s%%\n", r.Country, tariff.FormatPercent(r.TariffsChargedToUSA), tariff.FormatPercent(r.USAReciprocalTariffs))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "\n%s\n", ds.SummaryFor(countries))
	return nil
}
