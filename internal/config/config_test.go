package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresModelEnvVars(t *testing.T) {
	t.Setenv("LLM_MODEL_FAST", "")
	t.Setenv("LLM_MODEL_SMART", "")

	_, err := Load("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_MODEL_FAST")
}

func TestLoad_DefaultsWithoutOperationFile(t *testing.T) {
	t.Setenv("LLM_MODEL_FAST", "fast-model")
	t.Setenv("LLM_MODEL_SMART", "smart-model")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fast-model", cfg.LLM.LLMModelFast)
	assert.Equal(t, "smart-model", cfg.LLM.LLMModelSmart)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 4, cfg.Operation.SessionPoolSize)
	assert.Equal(t, ":8787", cfg.Operation.HTTPAddr)
}

func TestLoad_ReadsOperationYAML(t *testing.T) {
	t.Setenv("LLM_MODEL_FAST", "fast-model")
	t.Setenv("LLM_MODEL_SMART", "smart-model")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := "operation:\n  sessionPoolSize: 9\n  httpAddr: \":9999\"\n  defaultDomain: \"finance\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Operation.SessionPoolSize)
	assert.Equal(t, ":9999", cfg.Operation.HTTPAddr)
	assert.Equal(t, "finance", cfg.Operation.DefaultDomain)
	// Unspecified fields keep their defaults.
	assert.Equal(t, "./data/ledger", cfg.Operation.LedgerDir)
}

func TestLoad_MissingOperationFileIsNotAnError(t *testing.T) {
	t.Setenv("LLM_MODEL_FAST", "fast-model")
	t.Setenv("LLM_MODEL_SMART", "smart-model")

	_, err := Load("/nonexistent/path/config.yaml")
	assert.NoError(t, err)
}
