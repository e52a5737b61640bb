package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/internal/metrics"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/game"
)

var (
	configPath string
	storeDir   string
	replayDir  string

	rootCmd = &cobra.Command{
		Use:           "game",
		Short:         "Play tic-tac-toe against a trained agent or another human",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config")
	rootCmd.Flags().StringVar(&storeDir, "store-dir", "", "override the knowledge directory")
	rootCmd.Flags().StringVar(&replayDir, "replay-dir", "", "save every finished game as a replay file in this directory")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}

	// The screen owns stdout while playing.
	cfg.Log.Level = "error"
	log := app.NewLogger(cfg)

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	newBot := func(mark tictactoe.Player) (*game.QBot, error) {
		bot, err := game.NewQBot(
			qlearning.WithConfig(cfg.Agent),
			qlearning.WithLogger(log.Logger),
		)
		if err != nil {
			return nil, err
		}

		_, err = bot.Engine().Load(cmd.Context(), store, app.KnowledgeFor(cfg, mark))
		metrics.StoreOp("load", err)
		return bot, nil
	}

	return game.New(newBot, log.Logger, game.WithReplayDir(replayDir)).Play()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.New().Error(err.Error())
		os.Exit(1)
	}
}
