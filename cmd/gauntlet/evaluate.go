package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgebench/go-gauntlet/internal/worker"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score agents synchronously, without Temporal",
	Long:  "Runs the scoring pipeline in-process for one agent, or for every agent in the evaluation when --agent is omitted.",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("evaluation", "", "Evaluation ID (required)")
	evaluateCmd.Flags().String("agent", "", "Agent name (default: all agents)")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	evaluationID, _ := cmd.Flags().GetString("evaluation")
	agent, _ := cmd.Flags().GetString("agent")
	if evaluationID == "" {
		return fmt.Errorf("--evaluation is required")
	}

	ctx := context.Background()
	deps, err := worker.Initialize(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	agents := []string{agent}
	if agent == "" {
		ev, err := deps.Store.GetEvaluation(ctx, evaluationID)
		if err != nil {
			return err
		}
		agents = ev.Agents
	}

	for _, a := range agents {
		result, err := deps.Orchestrator.Evaluate(ctx, evaluationID, a)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", a, err)
		}
		fmt.Printf("%s: %d/100\n", a, result.Score)
	}
	return nil
}
