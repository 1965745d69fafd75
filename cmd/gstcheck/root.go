package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gstfiling/internal/config"
	"gstfiling/internal/filing"
	"gstfiling/internal/gst"
	"gstfiling/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "gstcheck",
	Short: "Offline GST filing checks",
	Long: `gstcheck runs the filing engine's validators against local files.

Engine policy (standard rate, time-bar window, rate assumption) comes from
the same GSTFILING_* environment variables the server reads; a .env file in
the working directory is loaded first.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		level, _ := cmd.Flags().GetString("log-level")
		logger.SetupWriter(logger.Config{Level: level, Format: "console"}, os.Stderr)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("gstcheck")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("assume-standard-rate", false, "Tax aggregates without a rate breakdown at the standard rate")
}

// newMachine builds a filing machine from the environment's engine config.
// The --assume-standard-rate flag, when set, wins over the environment.
func newMachine(cmd *cobra.Command) (*filing.Machine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	assume := cfg.Engine.AssumeStandardRate
	if cmd.Flags().Changed("assume-standard-rate") {
		assume, _ = cmd.Flags().GetBool("assume-standard-rate")
	}
	engine := gst.NewEngine(cfg.Engine.Table(), gst.Options{AssumeStandardRate: assume})
	return filing.NewMachine(engine), nil
}
