package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zarux/qtictactoe/internal/app"
	"github.com/Zarux/qtictactoe/internal/config"
	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/internal/metrics"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
	"github.com/Zarux/qtictactoe/services/agentapi"
)

var (
	configPath string
	addr       string

	rootCmd = &cobra.Command{
		Use:           "server",
		Short:         "Serve the trained agents over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	log := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	x, o, err := loadEngines(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := agentapi.New(x, o)
	h := agentapi.HTTPHandler(svc)
	handler := rootHandler(cfg.Server.Root, h)

	middlewares := []func(http.Handler) http.Handler{
		logger.NewMiddleware(log),
	}

	slices.Reverse(middlewares)

	for _, mw := range middlewares {
		handler = mw(handler)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening on", "addr", cfg.Server.Addr, "root", cfg.Server.Root)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func rootHandler(root string, h http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(root+"/", http.StripPrefix(root, h))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// loadEngines reads both greedy agents and releases the store, since the
// tables live in memory from here on.
func loadEngines(ctx context.Context, cfg config.Config, log *logger.Logger) (x, o *qlearning.Engine, err error) {
	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	x, err = app.LoadGreedy(ctx, cfg, log, store, tictactoe.P1)
	if err != nil {
		return nil, nil, err
	}
	o, err = app.LoadGreedy(ctx, cfg, log, store, tictactoe.P2)
	if err != nil {
		return nil, nil, err
	}

	return x, o, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.New().Error(err.Error())
		os.Exit(1)
	}
}
