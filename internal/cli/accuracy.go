// internal/cli/accuracy.go
package tariffadvisor

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/accuracy"
	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/providerfactory"
)

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Check answers against known tariff figures",
	Long: `The 'accuracy' command asks the answerer a suite of questions whose answers are
known and records whether each reply states the expected percentage. Without
--suite, two questions per dataset row are generated from the configured dataset.
Results are appended as JSON lines to <results-dir>/<index>.jsonl.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		suitePath, _ := cmd.Flags().GetString("suite")
		resultsDir, _ := cmd.Flags().GetString("results-dir")
		limit, _ := cmd.Flags().GetInt("limit")
		return runAccuracy(cmd.Context(), cmd.OutOrStdout(), cfg, suitePath, resultsDir, limit)
	},
}

func init() {
	accuracyCmd.Flags().String("suite", "", "prompt suite JSON file (default: generated from the dataset)")
	accuracyCmd.Flags().String("results-dir", accuracy.DefaultResultsDir, `directory for result files ("-" to skip writing)`)
	accuracyCmd.Flags().Int("limit", 0, "only ask the first N questions (0 for all)")
	rootCmd.AddCommand(accuracyCmd)
}

func runAccuracy(ctx context.Context, out io.Writer, cfg appconfig.Config, suitePath, resultsDir string, limit int) error {
	var (
		suite accuracy.PromptSuite
		err   error
	)
	if suitePath != "" {
		suite, err = accuracy.LoadPromptSuite(suitePath)
	} else {
		ds, lerr := loadDataset(ctx, cfg)
		if lerr != nil {
			return fmt.Errorf("load dataset: %w", lerr)
		}
		status(out, "[ACCURACY] generating questions from %d dataset rows", ds.Len())
		suite, err = accuracy.SuiteFromRows(ds.Rows())
	}
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(suite.Tests) {
		suite.Tests = suite.Tests[:limit]
	}

	app, err := initApp(ctx, cfg, providerfactory.Options{SkipEnsureIndex: true})
	if err != nil {
		return err
	}
	defer app.Close()

	summary, err := accuracy.Run(ctx, app.Answerer, suite, accuracy.Options{
		Index:       cfg.IndexName(),
		ResultsDir:  resultsDir,
		Concurrency: cfg.Concurrency(),
		Out:         out,
	})
	if err != nil {
		return err
	}
	success(out, "%d/%d correct (%.1f%%), %d errors", summary.Correct, summary.Total, 100*summary.Rate(), summary.Errors)
	if summary.ResultsPath != "" {
		status(out, "[ACCURACY] results appended to %s", summary.ResultsPath)
	}
	return nil
}
