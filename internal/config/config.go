package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
)

const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Agent     qlearning.Config `yaml:"agent"`
	Knowledge Knowledge        `yaml:"knowledge"`
	Store     Store            `yaml:"store"`
	Training  Training         `yaml:"training"`
	Server    Server           `yaml:"server"`
	Log       Log              `yaml:"log"`
}

type Knowledge struct {
	FirstPlayer  string `yaml:"first_player"`
	SecondPlayer string `yaml:"second_player"`
}

type Store struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	// Append keeps every saved table in the file instead of replacing it.
	Append bool `yaml:"append"`
}

type Training struct {
	Games       int    `yaml:"games"`
	Window      int    `yaml:"window"`
	MetricsAddr string `yaml:"metrics_addr"`
	ChartPath   string `yaml:"chart_path"`
}

type Server struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Agent: qlearning.DefaultConfig(),
		Knowledge: Knowledge{
			FirstPlayer:  "first-player",
			SecondPlayer: "second-player",
		},
		Store: Store{
			Backend: StoreFile,
			Dir:     "knowledge",
		},
		Training: Training{
			Games:  100_000,
			Window: 1000,
		},
		Server: Server{
			Addr: "127.0.0.1:3000",
			Root: "/qtictactoe/v1",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults, applies QTTT_* environment overrides
// and validates the result. An empty path or a missing file means defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	fromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func fromEnv(cfg *Config) {
	if v := os.Getenv("QTTT_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := os.Getenv("QTTT_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("QTTT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("QTTT_GAMES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Training.Games = i
		}
	}
	if v := os.Getenv("QTTT_EXPLORATION_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Agent.ExplorationRate = f
		}
	}
}

func (c Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return err
	}

	if c.Knowledge.FirstPlayer == "" || c.Knowledge.SecondPlayer == "" {
		return fmt.Errorf("%w: knowledge identifiers must be set", ErrInvalid)
	}

	if c.Knowledge.FirstPlayer == c.Knowledge.SecondPlayer {
		return fmt.Errorf("%w: agents cannot share knowledge %q", ErrInvalid, c.Knowledge.FirstPlayer)
	}

	switch c.Store.Backend {
	case StoreFile:
	case StoreBadger:
		if c.Store.Append {
			return fmt.Errorf("%w: append is only supported by the file store", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}

	if c.Store.Dir == "" {
		return fmt.Errorf("%w: store dir must be set", ErrInvalid)
	}

	if c.Training.Games <= 0 {
		return fmt.Errorf("%w: games must be positive, got %d", ErrInvalid, c.Training.Games)
	}

	if c.Training.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", ErrInvalid, c.Training.Window)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}

	return nil
}
