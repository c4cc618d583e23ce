// Package app assembles a playable game from configuration: store, session, autosave,
// metrics and tick engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cashflow/internal/config"
	"cashflow/internal/engine"
	"cashflow/internal/game"
	"cashflow/internal/metrics"
	"cashflow/internal/store"
)

type App struct {
	Config  config.Config
	Session *game.Session
	Engine  *engine.Engine
	Metrics *metrics.Collector
	Store   store.Store

	log      *slog.Logger
	saver    *store.Autosaver
	unsubs   []func()
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closeErr error
	once     sync.Once
}

// Open loads the configured slot, or starts a fresh game when the slot is empty or its
// state is unreadable. Ticks do not run until Start.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		Dir:         cfg.DataDir,
		SQLitePath:  cfg.Store.SQLitePath,
		DatabaseURL: cfg.Store.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := []game.Option{game.WithLogger(logger)}
	snap, found, err := store.LoadSnapshot(ctx, st, cfg.Slot)
	switch {
	case errors.Is(err, store.ErrCorrupt):
		logger.Warn("saved game unreadable, starting fresh", "slot", cfg.Slot, "err", err)
	case err != nil:
		st.Close()
		return nil, err
	case found:
		opts = append(opts, game.WithSnapshot(snap))
		logger.Info("saved game restored", "slot", cfg.Slot, "entries", len(snap.Ledger))
	}

	a := &App{Config: cfg, Store: st, log: logger}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewCollector()
		opts = append(opts, game.WithInstrument(a.Metrics))
	}
	a.Session = game.NewSession(opts...)

	a.saver = store.NewAutosaver(st, cfg.Slot, logger)
	a.unsubs = append(a.unsubs, a.Session.Subscribe(a.saver.Observe))
	if a.Metrics != nil {
		a.saver.OnFailure = a.Metrics.PersistFailed
		a.unsubs = append(a.unsubs, a.Session.Subscribe(a.Metrics.Observe))
	}
	a.Session.Greet()

	a.Engine = engine.New(a.Session, engine.Options{
		YieldEvery:  cfg.Ticks.YieldEvery,
		EventsEvery: cfg.Ticks.EventsEvery,
		Logger:      logger,
	})
	return a, nil
}

// Start begins background saving and the ticks.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.saver.Run(ctx)
	}()
	return a.Engine.Start()
}

// Reset restarts the game and writes the opening ledger entry again.
func (a *App) Reset() error {
	if err := a.Engine.Reset(); err != nil {
		return err
	}
	a.Session.Greet()
	return nil
}

// Save writes the latest state now instead of waiting for the background saver.
func (a *App) Save(ctx context.Context) error {
	return a.saver.Flush(ctx)
}

// Close stops the ticks, flushes the last snapshot and closes the store.
func (a *App) Close() error {
	a.once.Do(func() {
		a.Engine.Stop()
		for _, unsub := range a.unsubs {
			unsub()
		}
		if a.cancel != nil {
			a.cancel()
			a.wg.Wait()
		} else {
			_ = a.saver.Flush(context.Background())
		}
		a.closeErr = a.Store.Close()
	})
	return a.closeErr
}
