package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 0.1, cfg.Agent.ExplorationRate)
	require.Equal(t, 1.0, cfg.Agent.DefaultValue)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
agent:
  exploration_rate: 0.2
  learning_rate: 0.5
store:
  backend: file
  dir: /tmp/q
  append: true
training:
  games: 500
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.2, cfg.Agent.ExplorationRate)
	require.Equal(t, 0.5, cfg.Agent.LearningRate)
	require.Equal(t, 0.3, cfg.Agent.DiscountFactor, "unset fields keep defaults")
	require.True(t, cfg.Store.Append)
	require.Equal(t, "/tmp/q", cfg.Store.Dir)
	require.Equal(t, 500, cfg.Training.Games)
	require.Equal(t, 1000, cfg.Training.Window)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("QTTT_GAMES", "42")
	t.Setenv("QTTT_EXPLORATION_RATE", "0")
	t.Setenv("QTTT_STORE_DIR", "elsewhere")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 42, cfg.Training.Games)
	require.Zero(t, cfg.Agent.ExplorationRate)
	require.Equal(t, "elsewhere", cfg.Store.Dir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		err  error
	}{
		{"bad agent", func(c *Config) { c.Agent.LearningRate = 0 }, qlearning.ErrInvalidConfig},
		{"shared knowledge", func(c *Config) { c.Knowledge.SecondPlayer = c.Knowledge.FirstPlayer }, ErrInvalid},
		{"empty knowledge", func(c *Config) { c.Knowledge.FirstPlayer = "" }, ErrInvalid},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, ErrInvalid},
		{"badger append", func(c *Config) { c.Store.Backend = StoreBadger; c.Store.Append = true }, ErrInvalid},
		{"no games", func(c *Config) { c.Training.Games = 0 }, ErrInvalid},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(&cfg)
			require.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent: [1, 2"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
