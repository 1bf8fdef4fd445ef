package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromPathsDefaultsOnly(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromPaths("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Orchestrator, cfg.Orchestrator)
}

func TestLoadFromPathsProjectOverridesGlobal(t *testing.T) {
	t.Parallel()

	global := writeConfigFile(t, t.TempDir(), `
board:
  board_id: global-board
orchestrator:
  max_concurrent: 5
  poll_interval: 30s
`)
	project := writeConfigFile(t, t.TempDir(), `
board:
  board_id: project-board
`)

	cfg, err := LoadFromPaths(project, global)
	require.NoError(t, err)

	assert.Equal(t, "project-board", cfg.Board.BoardID, "project layer wins")
	assert.Equal(t, 5, cfg.Orchestrator.MaxConcurrent, "global layer survives where project is silent")
	assert.Equal(t, 30*time.Second, cfg.Orchestrator.PollInterval)
}

func TestLoadFromPathsDurationStrings(t *testing.T) {
	t.Parallel()

	project := writeConfigFile(t, t.TempDir(), `
completion:
  timeout: 90s
orchestrator:
  poll_interval: 2m
`)

	cfg, err := LoadFromPaths(project, "")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Orchestrator.PollInterval)
}

func TestLoadFromPathsInvalidValuesRejected(t *testing.T) {
	t.Parallel()

	project := writeConfigFile(t, t.TempDir(), `
orchestrator:
  max_concurrent: 0
`)

	_, err := LoadFromPaths(project, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent")
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("DROVER_BOARD_BOARD_ID", "env-board")
	t.Setenv("DROVER_ORCHESTRATOR_MAX_CONCURRENT", "7")

	cfg, err := LoadFromPaths("", "")
	require.NoError(t, err)
	assert.Equal(t, "env-board", cfg.Board.BoardID)
	assert.Equal(t, 7, cfg.Orchestrator.MaxConcurrent)
}

func TestProjectConfigPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join(".drover", "config.yaml"), ProjectConfigPath())
}
