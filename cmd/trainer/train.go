package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/internal/metrics"
	"github.com/Zarux/qtictactoe/internal/report"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/trainer"
	"github.com/Zarux/qtictactoe/services/trainer/progress"
)

var (
	games       int
	window      int
	useTUI      bool
	metricsAddr string
	chartPath   string
	appendBlobs bool

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Run self-play training and save both agents' knowledge",
		RunE:  runTrain,
	}
)

func init() {
	trainCmd.Flags().IntVarP(&games, "games", "n", 0, "number of games to play (default from config)")
	trainCmd.Flags().IntVar(&window, "window", 0, "games per stats window (default from config)")
	trainCmd.Flags().BoolVar(&useTUI, "tui", false, "show a live progress screen")
	trainCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while training")
	trainCmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML training curve to this path")
	trainCmd.Flags().BoolVar(&appendBlobs, "append", false, "append tables to the knowledge files instead of replacing them")
}

func applyTrainFlags(cmd *cobra.Command, cfg *config.Config) {
	if games > 0 {
		cfg.Training.Games = games
	}
	if window > 0 {
		cfg.Training.Window = window
	}
	if metricsAddr != "" {
		cfg.Training.MetricsAddr = metricsAddr
	}
	if chartPath != "" {
		cfg.Training.ChartPath = chartPath
	}
	if cmd.Flags().Changed("append") {
		cfg.Store.Append = appendBlobs
	}
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	applyTrainFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	log = &logger.Logger{Logger: log.With(slog.String("run_id", runID))}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	first, firstObs, err := app.NewAgent(cfg, log, "first", tictactoe.P1)
	if err != nil {
		return err
	}
	second, secondObs, err := app.NewAgent(cfg, log, "second", tictactoe.P2)
	if err != nil {
		return err
	}

	sizes, loadErrs := trainer.LoadAgents(ctx, store, first, second)
	for _, err := range loadErrs {
		metrics.StoreOp("load", err)
	}
	firstObs.TableSize(sizes[0])
	secondObs.TableSize(sizes[1])
	log.Info("loaded knowledge",
		slog.Int(first.Knowledge, sizes[0]),
		slog.Int(second.Knowledge, sizes[1]),
	)

	if cfg.Training.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.Training.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", slog.String("addr", cfg.Training.MetricsAddr))
	}

	var program *tea.Program
	names := [2]string{first.Name, second.Name}

	t, err := trainer.New(first, second,
		trainer.WithLogger(log.Logger),
		trainer.WithWindow(cfg.Training.Window),
		trainer.WithOnGame(func(winner tictactoe.Player, outcome tictactoe.Outcome) {
			name := ""
			switch winner {
			case first.Mark:
				name = first.Name
			case second.Mark:
				name = second.Name
			}
			metrics.GameFinished(name, outcome)
		}),
		trainer.WithOnWindow(func(w trainer.WindowStats) {
			firstObs.TableSize(w.TableSize[0])
			secondObs.TableSize(w.TableSize[1])
			if program != nil {
				program.Send(progress.WindowMsg(w))
			}
		}),
	)
	if err != nil {
		return err
	}

	started := time.Now()
	var stats trainer.Stats
	if useTUI {
		stats, err = runWithTUI(ctx, t, names, cfg.Training.Games, &program)
	} else {
		log.Info("training", slog.Int("games", cfg.Training.Games))
		stats, err = t.Run(ctx, cfg.Training.Games)
	}

	// Knowledge gathered before an interrupt is still worth keeping.
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	saveErr := trainer.SaveAgents(context.WithoutCancel(ctx), store, first, second)
	metrics.StoreOp("save", saveErr)
	if saveErr != nil {
		return fmt.Errorf("save knowledge: %w", saveErr)
	}

	log.Info("training finished",
		slog.Int("games", stats.Games),
		slog.Int(first.Name+"_wins", stats.Wins[0]),
		slog.Int(second.Name+"_wins", stats.Wins[1]),
		slog.Int("draws", stats.Draws),
		slog.Duration("took", time.Since(started).Round(time.Millisecond)),
	)

	if cfg.Training.ChartPath != "" {
		if err := report.WriteFile(cfg.Training.ChartPath, names, stats.Windows); err != nil {
			return err
		}
		log.Info("wrote training chart", slog.String("path", cfg.Training.ChartPath))
	}

	return nil
}

// runWithTUI trains in the background while the progress screen runs.
// Quitting the screen cancels training.
func runWithTUI(ctx context.Context, t *trainer.Trainer, names [2]string, games int, program **tea.Program) (trainer.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := progress.New(names, games)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	*program = p

	type result struct {
		stats trainer.Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := t.Run(ctx, games)
		p.Send(progress.DoneMsg{Err: err})
		done <- result{stats, err}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-done
		return trainer.Stats{}, err
	}

	cancel()
	res := <-done
	return res.stats, res.err
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
