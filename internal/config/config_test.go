package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/mls-photo-enhancer/internal/enhance"
	"github.com/ironsheep/mls-photo-enhancer/internal/metering"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mls-enhance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, enhance.DefaultConfig(), cfg.Enhance)
	assert.Zero(t, cfg.Batch.Workers)
	assert.Equal(t, "memory", cfg.Metering.Store)
	assert.Equal(t, "free", cfg.Metering.DefaultPlan)
	assert.Equal(t, "default", cfg.Metering.Account)
	assert.Equal(t, "localhost:6379", cfg.Metering.Redis.Addr())
	assert.Equal(t, "mls:usage:", cfg.Metering.Redis.KeyPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
enhance:
  variant: pro
  gamma: 1.3
  clip-limit: 3
  max-size: 0
batch:
  workers: 2
metering:
  store: redis
  default-plan: Level 1
  redis:
    host: cache.internal
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, enhance.VariantPro, cfg.Enhance.Variant)
	assert.Equal(t, 1.3, cfg.Enhance.Gamma)
	assert.Equal(t, 3.0, cfg.Enhance.ClipLimit)
	assert.Zero(t, cfg.Enhance.MaxSize, "explicit zero must survive defaults")
	assert.Equal(t, 1.2, cfg.Enhance.Color, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, "redis", cfg.Metering.Store)
	assert.Equal(t, "cache.internal:6379", cfg.Metering.Redis.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "enhance:\n  gamma: 1.3\n")
	t.Setenv("MLS_ENHANCE_GAMMA", "1.5")
	t.Setenv("MLS_ENHANCE_CLIP_LIMIT", "4")
	t.Setenv("MLS_METERING_ACCOUNT", "broker-12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Enhance.Gamma)
	assert.Equal(t, 4.0, cfg.Enhance.ClipLimit)
	assert.Equal(t, "broker-12", cfg.Metering.Account)
}

func TestLoad_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidEnhanceSettings(t *testing.T) {
	path := writeConfig(t, "enhance:\n  gamma: -1\n")

	_, err := Load(path)

	var cfgErr *enhance.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "Gamma", cfgErr.Field)
}

func TestLoad_InfiniteEnvValueRejected(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	t.Setenv("MLS_ENHANCE_GAMMA", "Inf")

	_, err := Load(path)

	var cfgErr *enhance.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "Gamma", cfgErr.Field)
	assert.Contains(t, cfgErr.Error(), "finite")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative workers", func(c *Config) { c.Batch.Workers = -1 }, true},
		{"unknown store", func(c *Config) { c.Metering.Store = "postgres" }, true},
		{"unknown default plan", func(c *Config) { c.Metering.DefaultPlan = "gold" }, true},
		{"empty account", func(c *Config) { c.Metering.Account = "" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad quality", func(c *Config) { c.Enhance.Quality = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_DefaultPlanErrorWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Metering.DefaultPlan = "gold"

	assert.ErrorIs(t, cfg.Validate(), metering.ErrUnknownPlan)
}
