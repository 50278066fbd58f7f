package tariffadvisor

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/providerfactory"
	"github.com/mwiater/tariffadvisor/internal/rag"
)

// ragPreviewCmd shows the retrieved chunks and the assembled prompt for a query.
var ragPreviewCmd = &cobra.Command{
	Use:   "preview <query>",
	Short: "Preview retrieval and prompt assembly without calling the chat model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		app, err := initApp(cmd.Context(), cfg, providerfactory.Options{SkipEnsureIndex: true})
		if err != nil {
			return err
		}
		defer app.Close()

		status(cmd.OutOrStdout(), "[RAG] backend: %s index: %s", cfg.BackendName(), cfg.IndexName())
		return rag.RunPreview(cmd.Context(), cmd.OutOrStdout(), app.Answerer, strings.Join(args, " "))
	},
}

func init() {
	ragCmd.AddCommand(ragPreviewCmd)
}
