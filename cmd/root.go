//go:build !tinygo

// Package cmd is the host command line: the board simulator plus tools for
// the media tree and the device configuration.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"baer/config"

	"github.com/spf13/cobra"
)

var (
	cfg          config.Config
	cfgFile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "baer",
	Short: "Battery audio player firmware and board simulator",
	Long: `baer runs the audio player firmware against a simulated board.

Buttons, rotary encoder, LEDs, amplifier and fuel gauge are simulated;
tracks come from the media tree configured by media_root.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			slog.Warn("using default configuration", "config", cfgFile, "err", err)
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml or json, defaults built in)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
