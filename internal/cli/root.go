// internal/cli/root.go

// Package tariffadvisor holds the cobra commands of the tariffadvisor CLI.
package tariffadvisor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/logging"
)

// fileOnlyLogging marks commands that own the terminal and must log to the file only.
const fileOnlyLogging = "logging.fileOnly"

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:           "tariffadvisor",
	Short:         "tariffadvisor: ask questions about U.S. trade tariffs, grounded in an indexed dataset",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) .env first so viper's environment bindings can see it.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		// 2) Merge flags > env > config file > defaults into a snapshot.
		cfg, err := appconfig.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		currentConfig = &cfg

		// 3) Logging goes to the file; --debug mirrors it to stdout except for
		//    full-screen commands, which must keep stdout clean.
		initLog := logging.InitFileOnly
		if cfg.Debug && cmd.Annotations[fileOnlyLogging] != "true" {
			initLog = logging.Init
		}
		if err := initLog(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("backend", "", "vector backend: pinecone or pgvector")
	rootCmd.PersistentFlags().String("index", "", "vector index name")
	rootCmd.PersistentFlags().String("log-file", "", "log file path")
	rootCmd.PersistentFlags().Int("timeout", 0, "per-request timeout in seconds")

	// Flags override config.
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("index.name", rootCmd.PersistentFlags().Lookup("index"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// requireConfig returns the loaded configuration or an error when a command is
// invoked without the root pre-run.
func requireConfig() (appconfig.Config, error) {
	if currentConfig == nil {
		return appconfig.Config{}, errors.New("config is not loaded")
	}
	return *currentConfig, nil
}
