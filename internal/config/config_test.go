package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Data:      DataConfig{BasePath: "/some/path"},
		Lists:     ListsConfig{ViewDedupeWindow: 30 * time.Second, DefaultSort: "score"},
		RateLimit: RateLimitConfig{AuthPerMinute: 10, ViewsPerMinute: 10},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_RejectsNegativeDedupeWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Lists.ViewDedupeWindow = -time.Second
	assert.Error(t, cfg.Validate())

	cfg.Lists.ViewDedupeWindow = 0
	assert.NoError(t, cfg.Validate(), "zero disables deduplication")
}

func TestValidate_DefaultSort(t *testing.T) {
	cfg := validConfig()
	cfg.Lists.DefaultSort = "popularity"
	assert.Error(t, cfg.Validate())
}

func TestLoad_PrecedenceFlagOverEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SERVER_PORT", "9000")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{
		"-data-path", dir,
		"-port", "9100",
		"-env-file", filepath.Join(dir, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "flag wins over env")
	assert.Equal(t, "warn", cfg.Logger.Level, "env wins over default")
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, 30*time.Second, cfg.Lists.ViewDedupeWindow)
	assert.Equal(t, filepath.Join(dir, "listkeep.db"), cfg.Data.DatabasePath())
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("VIEW_DEDUPE_WINDOW=5m\nLIST_DEFAULT_LOCALE=sv\n"), 0o600))
	t.Setenv("LIST_DEFAULT_LOCALE", "de")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-data-path", dir, "-env-file", envPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Unsetenv("VIEW_DEDUPE_WINDOW") })

	assert.Equal(t, 5*time.Minute, cfg.Lists.ViewDedupeWindow)
	assert.Equal(t, "de", cfg.Lists.DefaultLocale)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Load(fs, []string{
		"-data-path", dir,
		"-view-dedupe-window", "soon",
		"-env-file", filepath.Join(dir, "missing.env"),
	})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	got, err := expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
	assert.Nil(t, splitList(""))
}
