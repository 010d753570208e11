// Package workspace loads baseline and solution artifacts for evaluations.
// Providers are external collaborators: the orchestrator treats any load
// failure as an empty file set, since a partial or missing submission is a
// valid, scorable outcome.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// Provider loads baseline artifacts for a task and solution artifacts for an
// agent. Implementations may fail; callers recover with an empty file set.
type Provider interface {
	LoadBaseline(ctx context.Context, taskID string) (domain.FileSet, error)
	LoadSolution(ctx context.Context, evaluationID, agent string) (domain.FileSet, error)
}

// FSProvider serves artifacts from the local filesystem:
// baselines from <TasksDir>/<task>/baseline and solutions from
// <SolutionsDir>/<evaluation>/<agent>.
type FSProvider struct {
	TasksDir     string
	SolutionsDir string
}

// NewFSProvider creates a filesystem-backed provider.
func NewFSProvider(tasksDir, solutionsDir string) *FSProvider {
	return &FSProvider{TasksDir: tasksDir, SolutionsDir: solutionsDir}
}

// LoadBaseline reads every text file under the task's baseline directory.
func (p *FSProvider) LoadBaseline(_ context.Context, taskID string) (domain.FileSet, error) {
	return readTree(filepath.Join(p.TasksDir, taskID, "baseline"))
}

// LoadSolution reads every text file under the agent's solution directory.
func (p *FSProvider) LoadSolution(_ context.Context, evaluationID, agent string) (domain.FileSet, error) {
	return readTree(filepath.Join(p.SolutionsDir, evaluationID, agent))
}

// readTree walks a directory into a FileSet keyed by slash-separated
// relative paths. Binary files (invalid UTF-8) are skipped, matching the
// scorer's text-only contract. A missing root yields an empty set.
func readTree(root string) (domain.FileSet, error) {
	files := make(domain.FileSet)

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return files, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			return nil // skip binary files
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
