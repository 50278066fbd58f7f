// internal/cli/ingest.go
package tariffadvisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/normalize"
	"github.com/mwiater/tariffadvisor/internal/providerfactory"
)

// initApp is swapped out in tests.
var initApp = providerfactory.Init

// sourceFlags maps each ingest flag to the kind of source it names.
var sourceFlags = []struct {
	name  string
	kind  normalize.Kind
	usage string
}{
	{"csv", normalize.KindCSV, "path to a CSV file"},
	{"excel", normalize.KindExcel, "path to an Excel workbook (.xlsx)"},
	{"pdf", normalize.KindPDF, "path to a PDF document"},
	{"word", normalize.KindWord, "path to a Word document (.docx)"},
	{"ppt", normalize.KindPPT, "path to a PowerPoint deck (.pptx)"},
	{"api", normalize.KindAPI, "URL of a JSON API returning an array of flat objects"},
	{"auto", "", "path or URL whose kind is inferred from its extension or scheme"},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed a source and upsert it into the vector index",
	Long: `The 'ingest' command normalizes exactly one source into chunks, embeds every chunk
and upserts the records into the configured vector index in batches.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceFromFlags(cmd)
		if err != nil {
			return err
		}
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
			cfg.Ingest.Concurrency = n
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runIngest(ctx, cmd.OutOrStdout(), cfg, src)
	},
}

func init() {
	addSourceFlags(ingestCmd)
	ingestCmd.Flags().Int("concurrency", 0, "embedding requests in flight (default from config)")
	rootCmd.AddCommand(ingestCmd)
}

// addSourceFlags registers the source flags on cmd, exactly one of which must be set.
func addSourceFlags(cmd *cobra.Command) {
	names := make([]string, 0, len(sourceFlags))
	for _, f := range sourceFlags {
		cmd.Flags().String(f.name, "", f.usage)
		names = append(names, f.name)
	}
	cmd.MarkFlagsMutuallyExclusive(names...)
	cmd.MarkFlagsOneRequired(names...)
}

// sourceFromFlags returns the source named by the one source flag that was set.
func sourceFromFlags(cmd *cobra.Command) (normalize.Source, error) {
	for _, f := range sourceFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		location, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return normalize.Source{}, err
		}
		if f.kind == "" {
			return normalize.DetectSource(location)
		}
		return normalize.NewSource(f.kind, location)
	}
	return normalize.Source{}, errors.New("one of --csv, --excel, --pdf, --word, --ppt, --api or --auto is required")
}

func runIngest(ctx context.Context, out io.Writer, cfg appconfig.Config, src normalize.Source) error {
	status(out, "[INGEST] source: %s", src)
	app, err := initApp(ctx, cfg, providerfactory.Options{Progress: progressPrinter(out)})
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Pipeline.Ingest(ctx, src)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", src, err)
	}
	success(out, "Successfully upserted %d chunks from %s in %d batch(es)", report.Chunks, report.Source, report.Batches)
	return nil
}

// progressPrinter reports every tenth of the work, and the last chunk.
func progressPrinter(out io.Writer) func(done, total int) {
	return func(done, total int) {
		step := total / 10
		if step == 0 {
			step = 1
		}
		if done%step == 0 || done == total {
			fmt.Fprintf(out, "  embedded %d/%d\n", done, total)
		}
	}
}
