// internal/cli/show_config.go
package tariffadvisor

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
)

// showConfigCmd prints the merged configuration with secrets masked.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings, confirming that the JSON config, the environment and flags are merged as expected.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			_, err := pp.Fprintln(cmd.OutOrStdout(), cfg.Redacted())
			return err
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	showConfigCmd.Flags().Bool("dump", false, "pretty-print the full config struct")
	showCmd.AddCommand(showConfigCmd)
}
