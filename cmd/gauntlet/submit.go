package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/forgebench/go-gauntlet/internal/worker"
	"github.com/forgebench/go-gauntlet/internal/workflow"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Start an evaluation workflow on Temporal",
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().String("evaluation", "", "Evaluation ID (required)")
	submitCmd.Flags().StringSlice("agents", nil, "Agent names (default: read from the store; required when a worker holds the store lock)")
	submitCmd.Flags().Bool("wait", false, "Block until the workflow completes and print the summary")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	evaluationID, _ := cmd.Flags().GetString("evaluation")
	agents, _ := cmd.Flags().GetStringSlice("agents")
	wait, _ := cmd.Flags().GetBool("wait")
	if evaluationID == "" {
		return fmt.Errorf("--evaluation is required")
	}

	ctx := context.Background()
	if len(agents) == 0 {
		deps, err := worker.Initialize(ctx, cfg, logger)
		if err != nil {
			return err
		}
		ev, err := deps.Store.GetEvaluation(ctx, evaluationID)
		deps.Close()
		if err != nil {
			return err
		}
		agents = ev.Agents
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("connect to temporal at %s: %w", cfg.Temporal.HostPort, err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "evaluation-" + evaluationID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflow.EvaluationWorkflow, workflow.EvaluationInput{
		EvaluationID: evaluationID,
		Agents:       agents,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}

	logger.Info("workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	fmt.Println(run.GetID())

	if !wait {
		return nil
	}
	var summary workflow.EvaluationSummary
	if err := run.Get(ctx, &summary); err != nil {
		return err
	}
	fmt.Printf("succeeded: %d, failed: %d\n", len(summary.Succeeded), len(summary.Failed))
	return nil
}
