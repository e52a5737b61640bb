// Package app builds the stores, agents and loggers shared by the commands.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/internal/metrics"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/qstore"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/trainer"
)

func NewLogger(cfg config.Config) *logger.Logger {
	return logger.New(logger.WithLevel(cfg.Log.Level), logger.WithFormat(cfg.Log.Format))
}

// Store is a knowledge store that can list what it holds and may hold
// resources to release.
type Store interface {
	qlearning.Store
	IDs() ([]string, error)
	Blobs(id string) (int, error)
	Close() error
}

type fileStore struct {
	*qstore.FileStore
}

func (fileStore) Close() error { return nil }

func OpenStore(cfg config.Config, log *logger.Logger) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBadger:
		s, err := qstore.OpenBadger(qstore.BadgerConfig{
			Path:   filepath.Join(cfg.Store.Dir, "badger"),
			Logger: log.Logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreFile:
		return fileStore{qstore.NewFileStore(cfg.Store.Dir, cfg.Store.Append)}, nil
	}

	return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalid, cfg.Store.Backend)
}

// KnowledgeFor names the table an agent playing mark uses. X always trains
// as the first player.
func KnowledgeFor(cfg config.Config, mark tictactoe.Player) string {
	if mark == tictactoe.P1 {
		return cfg.Knowledge.FirstPlayer
	}
	return cfg.Knowledge.SecondPlayer
}

// NewAgent builds an agent for mark with its own engine, reporting to the
// metrics registry.
func NewAgent(cfg config.Config, log *logger.Logger, name string, mark tictactoe.Player, opts ...qlearning.Option) (*trainer.Agent, *metrics.Agent, error) {
	obs := metrics.ForAgent(name)
	opts = append([]qlearning.Option{
		qlearning.WithConfig(cfg.Agent),
		qlearning.WithLogger(log.With("agent", name)),
		qlearning.WithObserver(obs),
	}, opts...)

	e, err := qlearning.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	return &trainer.Agent{
		Name:      name,
		Mark:      mark,
		Knowledge: KnowledgeFor(cfg, mark),
		Learner:   e,
	}, obs, nil
}

// LoadGreedy returns an engine for mark playing without exploration, loaded
// from the store.
func LoadGreedy(ctx context.Context, cfg config.Config, log *logger.Logger, store qlearning.Store, mark tictactoe.Player) (*qlearning.Engine, error) {
	agent, obs, err := NewAgent(cfg, log, KnowledgeFor(cfg, mark), mark, qlearning.WithExplorationRate(0))
	if err != nil {
		return nil, err
	}

	sizes, errs := trainer.LoadAgents(ctx, store, agent)
	metrics.StoreOp("load", errs[0])
	obs.TableSize(sizes[0])

	return agent.Learner.(*qlearning.Engine), nil
}
