package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/solo_shop/internal/config"
	"github.com/Skotchmaster/solo_shop/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "Single-product shop backend",
	Long: `shop serves the storefront API: accounts, the product, carts,
orders and reviews.

Commands:
  serve         - run the HTTP API
  bootstrap     - create the schema and seed the product row
  purge-tokens  - delete expired entries from the token blacklist`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = logging.New(cfg.LogLevel)
		slog.SetDefault(logger)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(purgeCmd)
}
