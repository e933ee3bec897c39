package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/alerts"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/engine"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/provider/replay"
)

var replayFile string

// replayCommand drives the engine to completion over a fixed CSV fixture
// instead of a live provider, the same offline-dataset role simCommand.go
// plays for the Bitcoin fee estimators, printing the final snapshot
// instead of running a persistent query surface.
var replayCommand = &cobra.Command{
	Use:   "replay",
	Short: "Replays a fee dataset and prints the resulting insights",
	Long:  `Runs the engine against a CSV fixture until it is exhausted, then prints the final snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context())
	},
}

func init() {
	replayCommand.Flags().StringVarP(&replayFile, "file", "f", "", "path to a fee dataset CSV (overrides provider.replayFile)")
	RootCmd.AddCommand(replayCommand)
}

func runReplay(ctx context.Context) error {
	provider, err := replay.New(cfg.Provider.ReplayFile, cfg.Provider.ReplayBatchSize)
	if err != nil {
		return err
	}

	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(engineCfg, provider, alerts.NopEmitter{}, logger)
	if err != nil {
		return err
	}

	for provider.Remaining() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		eng.RunOnce(ctx)
	}

	snapshot := eng.GetCurrentInsights()
	fmt.Printf("data_quality=%s windows=%d spikes=%d trend=%s\n",
		snapshot.DataQuality, len(snapshot.RollingAverages),
		len(snapshot.CongestionTrends.RecentSpikes), snapshot.CongestionTrends.CurrentTrend)
	return nil
}
