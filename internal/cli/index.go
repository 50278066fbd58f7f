package tariffadvisor

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/providerfactory"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

// indexEnsureCmd creates the configured index when it does not exist.
var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the vector index if it is missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		app, err := initApp(cmd.Context(), cfg, providerfactory.Options{})
		if err != nil {
			return err
		}
		defer app.Close()
		success(cmd.OutOrStdout(), "Index %s ready on %s (dimension %d, metric %s)", cfg.IndexName(), cfg.BackendName(), cfg.Dimension(), cfg.Metric())
		return nil
	},
}

func init() {
	indexCmd.AddCommand(indexEnsureCmd)
	rootCmd.AddCommand(indexCmd)
}
