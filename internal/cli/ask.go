// internal/cli/ask.go
package tariffadvisor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/chat"
	"github.com/mwiater/tariffadvisor/internal/providerfactory"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question from the indexed tariff data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return runAsk(cmd.Context(), cmd.OutOrStdout(), cfg, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, out io.Writer, cfg appconfig.Config, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question is required")
	}
	app, err := initApp(ctx, cfg, providerfactory.Options{SkipEnsureIndex: true})
	if err != nil {
		return err
	}
	defer app.Close()

	rec, _, err := chat.NewSession(app.Answerer).Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[%s] Q: %s\n", rec.Timestamp, rec.Question)
	fmt.Fprintf(out, "A: %s\n", rec.Answer)
	return nil
}
