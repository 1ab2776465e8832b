// Package cli implements the boardauth command: serve and migrate.
package cli

import (
	"fmt"

	"github.com/MrEthical07/boardAuth/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "boardauth",
	Short: "Board service with JWT authentication",
	Long: `boardauth serves the board HTTP API behind bearer token authentication.

Configuration is read from config.yaml (or --config) and overridden by
BOARDAUTH_* environment variables, e.g. BOARDAUTH_AUTH_ACCESS_SECRET.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/boardauth/config.yaml)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
