package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MedLegalChat/internal/config"
)

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		configFile = ""
		flagValues = config.Default()
	})
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&flagValues.Model, "model", flagValues.Model, "")
	fs.IntVar(&flagValues.MaxTokens, "max-tokens", flagValues.MaxTokens, "")
	fs.StringVar(&flagValues.Store, "store", flagValues.Store, "")
	fs.DurationVar(&flagValues.HTTPTimeout, "timeout", flagValues.HTTPTimeout, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfig_Layers(t *testing.T) {
	resetFlags(t)
	t.Setenv(config.APIKeyEnv, "sk-test")

	configFile = filepath.Join(t.TempDir(), "medlegalchat.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("model: gpt-4o-mini\nmax_tokens: 500\nhttp_timeout: 30s\n"), 0644))

	cfg, err := loadConfig(testFlags(t, "--model", "gpt-4.1"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.Model, "explicit flag beats the file")
	assert.Equal(t, 500, cfg.MaxTokens, "file beats the default")
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout, "unset flag leaves the file value")
	assert.Equal(t, config.DefaultTemperature, cfg.Temperature)
	assert.Equal(t, "sk-test", cfg.APIKey)
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	resetFlags(t)
	t.Setenv(config.APIKeyEnv, "")

	_, err := loadConfig(testFlags(t))
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	resetFlags(t)
	t.Setenv(config.APIKeyEnv, "sk-test")

	_, err := loadConfig(testFlags(t, "--store", "memcached"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session store: memcached")
}

func TestLoadConfig_BadFile(t *testing.T) {
	resetFlags(t)
	t.Setenv(config.APIKeyEnv, "sk-test")
	configFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := loadConfig(testFlags(t))
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["chat"])

	for _, flag := range []string{"addr", "store", "redis-addr", "rate"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(flag), flag)
	}
	for _, flag := range []string{"config", "model", "base-url", "save-dir", "audit-db"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}
