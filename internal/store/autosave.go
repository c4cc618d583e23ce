package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cashflow/internal/game"
)

const shutdownFlushTimeout = 5 * time.Second

// Autosaver persists the latest snapshot of a session in the background. It is fed from
// Session.Subscribe; bursts of changes collapse into one write of the newest snapshot.
// Write failures are logged and reported to OnFailure, never to the game.
type Autosaver struct {
	store Store
	slot  string
	log   *slog.Logger

	// OnFailure, when set, is called once per failed flush.
	OnFailure func(error)

	flushMu sync.Mutex
	mu      sync.Mutex
	pending *game.Snapshot
	clear   bool
	wake    chan struct{}
}

func NewAutosaver(st Store, slot string, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autosaver{
		store: st,
		slot:  slot,
		log:   logger,
		wake:  make(chan struct{}, 1),
	}
}

// Observe records a change for the next flush. It never blocks, so it is safe to call
// with the session lock held.
func (a *Autosaver) Observe(c game.Change) {
	a.mu.Lock()
	snap := c.Snapshot
	a.pending = &snap
	if c.Reset {
		a.clear = true
	}
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run flushes after every observed change until ctx is cancelled, then flushes once more.
func (a *Autosaver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			_ = a.Flush(flushCtx)
			cancel()
			return
		case <-a.wake:
			_ = a.Flush(ctx)
		}
	}
}

// Flush writes whatever is pending. A reset since the last flush first clears the slot.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	pending, clear := a.pending, a.clear
	a.pending, a.clear = nil, false
	a.mu.Unlock()

	if clear {
		if err := ClearSnapshot(ctx, a.store, a.slot); err != nil {
			a.requeue(pending, true)
			a.fail(err)
			return err
		}
	}
	if pending == nil {
		return nil
	}
	if err := SaveSnapshot(ctx, a.store, a.slot, *pending); err != nil {
		a.requeue(pending, false)
		a.fail(err)
		return err
	}
	a.log.Debug("snapshot saved", "slot", a.slot, "entries", len(pending.Ledger))
	return nil
}

// requeue hands unfinished work back to the next flush. A snapshot observed in the
// meantime is newer and wins.
func (a *Autosaver) requeue(pending *game.Snapshot, clear bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		a.pending = pending
	}
	a.clear = a.clear || clear
}

func (a *Autosaver) fail(err error) {
	a.log.Error("persist snapshot failed", "slot", a.slot, "err", err)
	if a.OnFailure != nil {
		a.OnFailure(err)
	}
}
