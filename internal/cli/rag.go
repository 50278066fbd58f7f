package tariffadvisor

import "github.com/spf13/cobra"

// ragCmd groups retrieval inspection commands.
var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "RAG utilities",
}

func init() {
	rootCmd.AddCommand(ragCmd)
}
