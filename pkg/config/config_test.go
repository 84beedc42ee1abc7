package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "models/translation/IndicTrans2", cfg.Model.Dir)
	assert.Equal(t, "cpu", cfg.Model.Device)
	assert.Equal(t, BackendRemote, cfg.Model.Backend)
	assert.False(t, cfg.Model.Preload)
	assert.True(t, cfg.Model.ProbeArtifacts)
	assert.Equal(t, 120*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, float32(0.3), cfg.Anthropic.Temperature)
	assert.Equal(t, 500, cfg.Translation.MaxWords)
	assert.Equal(t, 256, cfg.Translation.MaxLength)
	assert.Equal(t, 4, cfg.Translation.NumBeams)
	assert.Equal(t, 512, cfg.Translation.MaxInputTokens)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, int64(1e7), cfg.Cache.MaxCost)
	assert.Empty(t, cfg.History.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indictrans.yaml")
	content := `
server:
  addr: ":9090"
model:
  dir: /srv/models/it2
  backend: anthropic
translation:
  max_words: 100
cache:
  ttl: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/srv/models/it2", cfg.Model.Dir)
	assert.Equal(t, BackendAnthropic, cfg.Model.Backend)
	assert.Equal(t, 100, cfg.Translation.MaxWords)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	// untouched keys keep their defaults
	assert.Equal(t, 4, cfg.Translation.NumBeams)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("INDICTRANS_MODEL_DEVICE", "cuda")
	t.Setenv("INDICTRANS_TRANSLATION_NUM_BEAMS", "2")
	t.Setenv("ANTHROPIC_KEY", "sk-test")
	t.Setenv("INDICTRANS_ANTHROPIC_TEMPERATURE", "0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cuda", cfg.Model.Device)
	assert.Equal(t, 2, cfg.Translation.NumBeams)
	assert.Equal(t, "sk-test", cfg.Anthropic.APIKey)
	assert.Equal(t, float32(0), cfg.Anthropic.Temperature)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("INDICTRANS_MODEL_BACKEND", "onnx")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model backend "onnx"`)
}
