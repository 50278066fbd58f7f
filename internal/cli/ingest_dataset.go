// internal/cli/ingest_dataset.go
package tariffadvisor

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/normalize"
	"github.com/mwiater/tariffadvisor/internal/providerfactory"
	"github.com/mwiater/tariffadvisor/internal/tariff"
)

// loadDataset is swapped out in tests.
var loadDataset = func(ctx context.Context, cfg appconfig.Config) (*tariff.Dataset, error) {
	return tariff.Load(ctx, cfg.DatasetPath(), &http.Client{Timeout: cfg.RequestTimeout()})
}

var ingestDatasetCmd = &cobra.Command{
	Use:   "ingest-dataset",
	Short: "Upload the configured tariff dataset to the vector index",
	Long: `The 'ingest-dataset' command loads the tariff dataset named by dataset.path (a CSV
file or a JSON URL), renders every row as one chunk, and indexes the rows.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return runIngestDataset(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(ingestDatasetCmd)
}

func runIngestDataset(ctx context.Context, out io.Writer, cfg appconfig.Config) error {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	status(out, "[INGEST] dataset %s: %d rows", ds.Source(), ds.Len())

	app, err := initApp(ctx, cfg, providerfactory.Options{Progress: progressPrinter(out)})
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Pipeline.IngestChunks(ctx, ds.Source(), normalize.TableChunks(ds.Table()))
	if err != nil {
		return fmt.Errorf("ingest dataset: %w", err)
	}
	success(out, "Successfully upserted %d chunks from %s in %d batch(es)", report.Chunks, report.Source, report.Batches)
	return nil
}
