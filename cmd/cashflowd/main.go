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

	"cashflow/internal/api"
	"cashflow/internal/app"
	"cashflow/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type daemonOptions struct {
	configPath string
	addr       string
	noAPI      bool
}

func main() {
	var opts daemonOptions
	root := &cobra.Command{
		Use:          "cashflowd",
		Short:        "Run a cashflow game in the background",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	root.Flags().StringVar(&opts.configPath, "config", "", "config file")
	root.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides api.addr")
	root.Flags().BoolVar(&opts.noAPI, "no-api", false, "run ticks and autosave without the HTTP control surface")

	if err := root.Execute(); err != nil {
		slog.Error("cashflowd failed", "err", err)
		os.Exit(1)
	}
}

func run(opts daemonOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Path(opts.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("instance", uuid.NewString())

	game, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open game: %w", err)
	}
	defer func() {
		if err := game.Close(); err != nil {
			logger.Error("close game failed", "err", err)
		}
	}()
	if err := game.Start(ctx); err != nil {
		return fmt.Errorf("start ticks: %w", err)
	}
	logger.Info("game running",
		"slot", cfg.Slot,
		"store", cfg.Store.Driver,
		"yield_every", cfg.Ticks.YieldEvery.String(),
		"events_every", cfg.Ticks.EventsEvery.String(),
	)

	if opts.noAPI {
		<-ctx.Done()
		logger.Info("daemon shutdown")
		return nil
	}

	apiOpts := api.Options{Logger: logger, Resetter: game}
	if game.Metrics != nil {
		apiOpts.Metrics = game.Metrics.Handler()
	}
	addr := cfg.API.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	if addr == "" {
		addr = config.DefaultAPIAddr
	}
	server := api.New(game.Session, apiOpts)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("cashflow api listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("daemon shutdown")
	return nil
}
