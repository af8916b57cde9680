package main

import (
	"fmt"

	"smartpen/config"
	"smartpen/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smartpen",
	Short: "Note and stroke storage backend for the smartpen apps",
	Long: `smartpen serves the notes REST API, the Bluetooth stroke ingest
endpoints and a websocket that tells a user's devices when their notes change.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
}
