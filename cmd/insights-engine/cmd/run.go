package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/alerts"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/api"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/engine"
	jsonrpcprovider "github.com/nottherealalanturing/stellar-fee-tracker/pkg/provider/jsonrpc"
	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/provider/replay"
)

// runCommand starts the engine's orchestrator loop and its HTTP query
// surface, the same estimator.Run()-in-a-subcommand shape naiveCommand.go
// uses, generalized to the config-selected provider and a bundled API
// server instead of a single hardcoded RPC client.
var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Runs the fee insights engine",
	Long:  `Runs the fee insights engine against its configured provider until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(runCommand)
}

func runEngine(ctx context.Context) error {
	provider, closeProvider, err := buildProvider()
	if err != nil {
		return err
	}
	defer closeProvider()

	emitter, closeEmitter, err := buildEmitter()
	if err != nil {
		return err
	}
	defer closeEmitter()

	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(engineCfg, provider, emitter, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(eng)
	httpServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: server}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("starting query surface", zap.String("addr", cfg.Server.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("query surface stopped", zap.Error(err))
		}
	}()

	go func() {
		<-runCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), engineCfg.PollingInterval)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting engine", zap.String("provider", provider.Name()))
	if err := eng.Run(runCtx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func buildProvider() (engine.Provider, func(), error) {
	switch cfg.Provider.Kind {
	case "replay":
		p, err := replay.New(cfg.Provider.ReplayFile, cfg.Provider.ReplayBatchSize)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	default:
		p := jsonrpcprovider.New(jsonrpcprovider.Config{
			Endpoint:  cfg.Provider.Endpoint,
			AuthToken: cfg.Provider.AuthToken,
		}, "jsonrpc-"+cfg.Provider.Endpoint, logger)
		return p, p.Close, nil
	}
}

func buildEmitter() (engine.AlertEmitter, func(), error) {
	if cfg.Database.DSN == "" {
		return alerts.NopEmitter{}, func() {}, nil
	}

	store, err := alerts.NewStore(context.Background(), cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return alerts.NewWebhookEmitter(store, logger), store.Close, nil
}
