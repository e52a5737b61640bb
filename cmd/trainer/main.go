package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/internal/logger"
)

var (
	configPath string
	logLevel   string
	backend    string
	storeDir   string

	rootCmd = &cobra.Command{
		Use:           "trainer",
		Short:         "Train and manage Q-learning tic-tac-toe agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "override the store backend (file or badger)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "override the knowledge directory")

	rootCmd.AddCommand(trainCmd, inspectCmd, exportCmd, importCmd, evaluateCmd, replayCmd)
}

// loadConfig reads the config file and applies the persistent flag
// overrides.
func loadConfig() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if backend != "" {
		cfg.Store.Backend = backend
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	return cfg, app.NewLogger(cfg), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.New().Error(err.Error())
		os.Exit(1)
	}
}
