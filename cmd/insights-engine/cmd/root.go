// Package cmd wires the insights engine's configuration, logging, and
// subcommands into a cobra command tree, the same package-level
// logger/RootCmd shape rootCommand.go builds, generalized from a single
// Bitcoin RPC client to this engine's config-driven provider selection.
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appconfig "github.com/nottherealalanturing/stellar-fee-tracker/pkg/config"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/logging"
)

var (
	logger *zap.Logger
	cfg    appconfig.Config

	configPath string
)

// RootCmd is the base command when the binary is invoked with no
// subcommand.
var RootCmd = &cobra.Command{
	Use:   "insights-engine",
	Short: "fee insights engine",
	Long:  `Streaming analytics core for blockchain transaction fees.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := appconfig.Load(configPath)
		if err != nil {
			return err
		}

		// The replay command drives the engine off a CSV fixture rather than
		// a live provider, so it never needs the jsonrpc endpoint Default()
		// assumes. Cobra parses flags before running this hook, so --file
		// is already available to stand in for provider.replayFile.
		if cmd.Name() == "replay" {
			loaded.Provider.Kind = "replay"
			if replayFile != "" {
				loaded.Provider.ReplayFile = replayFile
			}
		}

		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults built in if omitted)")
}

// Execute adds all child commands to RootCmd and runs it. Called by
// main.main(); it only needs to happen once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("insights-engine: %v", err)
		os.Exit(-1)
	}
}
