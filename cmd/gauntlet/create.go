package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgebench/go-gauntlet/internal/domain"
	"github.com/forgebench/go-gauntlet/internal/worker"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an evaluation for a task",
	Long:  "Loads the task's config.yaml, registers the task, and creates a pending evaluation for the given agents.",
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().String("task", "", "Task ID (directory under tasks_dir, required)")
	createCmd.Flags().StringSlice("agents", nil, "Agent names to evaluate (required)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	taskID, _ := cmd.Flags().GetString("task")
	agents, _ := cmd.Flags().GetStringSlice("agents")
	if taskID == "" {
		return fmt.Errorf("--task is required")
	}
	if len(agents) == 0 {
		return fmt.Errorf("--agents is required")
	}

	ctx := context.Background()
	deps, err := worker.Initialize(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	configPath := filepath.Join(cfg.Workspace.TasksDir, taskID, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read task config %s: %w", configPath, err)
	}

	task, err := domain.ParseTaskConfig(taskID, data)
	if err != nil {
		return err
	}
	if err := deps.Store.PutTask(ctx, task); err != nil {
		return err
	}

	ev, err := domain.NewEvaluation(taskID, agents)
	if err != nil {
		return err
	}
	if err := deps.Store.PutEvaluation(ctx, ev); err != nil {
		return err
	}

	logger.Info("evaluation created",
		"evaluation_id", ev.ID, "task", taskID, "strategy", task.Strategy, "agents", strings.Join(agents, ","))
	fmt.Println(ev.ID)
	return nil
}
