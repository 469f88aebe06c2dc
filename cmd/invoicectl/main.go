// Command invoicectl runs maintenance tasks: schema migrations, a single
// sweep pass and development tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicepro/internal/app"
	"invoicepro/internal/config"
	"invoicepro/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "invoicectl",
	Short:         "InvoicePro maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
}

// loadConfig reads configuration and installs the default logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "invoicectl: %v\n", err)
		os.Exit(1)
	}
}
