// Command chandra analyzes AI conversations for CHN level, symbolic pressure
// and Ψ field telemetry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/chandra/internal/config"
)

var (
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// #region root

var rootCmd = &cobra.Command{
	Use:   "chandra",
	Short: "Conversation diagnostics: CHN levels, symbolic pressure and Ψ field telemetry",
	Long: `chandra scores AI conversations on the seven-level CHN hierarchy,
detects symbolic pressure in responses, tracks Ψ field metrics turn by turn
and integrates them into a collapse-boundary assessment.

Configuration is read from --config (YAML) with CHANDRA_DB and CHANDRA_ADDR
overriding the storage path and listen address.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion root
