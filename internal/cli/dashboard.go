package tariffadvisor

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/chat"
	"github.com/mwiater/tariffadvisor/internal/dashboard"
	"github.com/mwiater/tariffadvisor/internal/providerfactory"
)

var runDashboard = dashboard.Run

// dashboardCmd starts the terminal dashboard.
var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Short:       "Open the interactive tariff dashboard",
	Long:        `The 'dashboard' command opens charts over the tariff dataset next to a chat panel answered from the vector index.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{fileOnlyLogging: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		ds, err := loadDataset(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		app, err := initApp(ctx, cfg, providerfactory.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		return runDashboard(ctx, ds, chat.NewSession(app.Answerer), cfg.LogFilePath())
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
