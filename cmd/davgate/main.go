package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/davgate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "davgate",
	Short:   "WebDAV server behind a single Basic auth credential",
	Long: `davgate serves a local directory over WebDAV. Every request must carry
the one configured username and password; anything else is answered with
401 before it reaches the file system.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringArray("config")

		// Validation is left to each command: init and token run with an
		// incomplete configuration.
		cfg, err := config.Read(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringArray("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: DAVGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
