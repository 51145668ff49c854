package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/burrow/pkg/api"
	"github.com/cuemby/burrow/pkg/config"
	"github.com/cuemby/burrow/pkg/controller"
	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/transport"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the convergence daemon",
	Long: `Run the convergence daemon.

Loads the group definitions from the configuration file, then converges
every group on an interval until interrupted. The admin API and
Prometheus metrics are served on the configured listen address.

Examples:
  # Run with the default config path
  burrow run

  # Run against a specific config
  burrow run -c /etc/burrow/burrow.yaml`,
	RunE: runService,
}

func init() {
	runCmd.Flags().StringP("config", "c", "burrow.yaml", "Configuration file")
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	logger := log.WithComponent("main")
	logger.Info().
		Str("version", Version).
		Int("groups", len(cfg.Groups)).
		Msg("starting burrow")

	requester := transport.NewHTTPRequester(cfg.Endpoints(), cfg.Cloud.AuthToken)

	broker := events.NewBroker()
	broker.Start()

	ctrl := controller.NewController(controller.Options{
		Source:        cfg,
		Requester:     requester,
		Broker:        broker,
		Interval:      cfg.Interval.Std(),
		CycleTimeout:  cfg.CycleTimeout.Std(),
		BuildTimeout:  cfg.BuildTimeout.Std(),
		MaxConcurrent: cfg.MaxConcurrentGroups,
	})
	ctrl.Start()

	apiServer := api.NewServer(cfg.ListenAddr, ctrl, broker, Version)
	apiServer.Start()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")

	ctrl.Stop()
	broker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		return fmt.Errorf("failed to shutdown admin API: %v", err)
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
