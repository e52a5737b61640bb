package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
)

func badgerConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = config.StoreBadger
	cfg.Store.Dir = t.TempDir()
	return cfg
}

func TestLoadEngines(t *testing.T) {
	ctx := context.Background()
	log := logger.New(logger.WithWriter(&bytes.Buffer{}))

	t.Run("loads both agents", func(t *testing.T) {
		x, o, err := loadEngines(ctx, badgerConfig(t), log)
		require.NoError(t, err)
		require.Zero(t, x.Config().ExplorationRate)
		require.Zero(t, o.Config().ExplorationRate)
	})

	t.Run("releases the store when an agent cannot be built", func(t *testing.T) {
		cfg := badgerConfig(t)
		cfg.Agent.LearningRate = 0

		_, _, err := loadEngines(ctx, cfg, log)
		require.ErrorIs(t, err, qlearning.ErrInvalidConfig)

		// Badger holds a directory lock while open.
		store, err := app.OpenStore(cfg, log)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})
}
