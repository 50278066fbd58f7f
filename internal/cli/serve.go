package tariffadvisor

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/tariffadvisor/internal/chat"
	"github.com/mwiater/tariffadvisor/internal/metrics"
	"github.com/mwiater/tariffadvisor/internal/providerfactory"
	"github.com/mwiater/tariffadvisor/internal/server"
)

// serveCmd runs the HTTP API until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tariff and chat HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := loadDataset(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		m := metrics.New()
		app, err := initApp(ctx, cfg, providerfactory.Options{Metrics: m})
		if err != nil {
			return err
		}
		defer app.Close()

		sessions := chat.NewStore(metrics.NewAnswerer(app.Answerer, m)).
			WithLimits(cfg.Server.MaxSessions, cfg.SessionIdleTTL())
		srv := server.New(ds, sessions, m.Handler())
		status(cmd.OutOrStdout(), "[HTTP] serving on %s (%d countries, backend %s)", cfg.ServerAddress(), ds.Len(), cfg.BackendName())
		return srv.Start(ctx, cfg.ServerAddress())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	_ = viper.BindPFlag("server.address", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
