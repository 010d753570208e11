package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/forgebench/go-gauntlet/internal/evalactivity"
	"github.com/forgebench/go-gauntlet/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal evaluation worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	deps, err := worker.Initialize(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("connect to temporal at %s: %w", cfg.Temporal.HostPort, err)
	}
	defer c.Close()

	w := sdkworker.New(c, cfg.Temporal.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, evalactivity.NewActivities(deps.Orchestrator))

	logger.Info("worker starting", "task_queue", cfg.Temporal.TaskQueue, "namespace", cfg.Temporal.Namespace)
	return w.Run(sdkworker.InterruptCh())
}
