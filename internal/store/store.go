package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cashflow/internal/db"
	"cashflow/internal/game"
)

const (
	StateKey  = "finance-game-state"
	LedgerKey = "finance-game-transactions"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	ErrNotFound    = errors.New("key not found")
	ErrInvalidSlot = errors.New("invalid slot name")
	ErrCorrupt     = errors.New("corrupt snapshot")
)

// Store is an opaque key/value persistence backend. Keys are namespaced by save slot.
type Store interface {
	Get(ctx context.Context, slot, key string) ([]byte, error)
	Put(ctx context.Context, slot, key string, value []byte) error
	Delete(ctx context.Context, slot, key string) error
	Close() error
}

type Options struct {
	Driver      string
	Dir         string
	SQLitePath  string
	DatabaseURL string
}

func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverFile:
		return NewFileStore(opts.Dir)
	case DriverSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	case DriverPostgres:
		pool, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, pool, true)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func validateSlot(slot string) error {
	if slot == "" || slot == "." || slot == ".." || strings.ContainsAny(slot, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

// LoadSnapshot reads the persisted game of slot. found is false when nothing was ever
// saved there. A state that cannot be read as an object yields ErrCorrupt; callers
// start a fresh game in that case. A damaged ledger is replaced by an empty one.
func LoadSnapshot(ctx context.Context, st Store, slot string) (snap game.Snapshot, found bool, err error) {
	rawState, err := st.Get(ctx, slot, StateKey)
	if errors.Is(err, ErrNotFound) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("load state: %w", err)
	}
	state, err := game.DecodeState(rawState)
	if err != nil {
		return game.Snapshot{}, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var ledger []game.Transaction
	rawLedger, err := st.Get(ctx, slot, LedgerKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return game.Snapshot{}, false, fmt.Errorf("load ledger: %w", err)
	default:
		// a broken ledger is not worth losing the state over
		ledger, _ = game.DecodeLedger(rawLedger, time.Now)
	}
	return game.Snapshot{State: state, Ledger: ledger}, true, nil
}

func SaveSnapshot(ctx context.Context, st Store, slot string, snap game.Snapshot) error {
	rawState, err := game.EncodeState(snap.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	rawLedger, err := game.EncodeLedger(snap.Ledger)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := st.Put(ctx, slot, StateKey, rawState); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := st.Put(ctx, slot, LedgerKey, rawLedger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// ClearSnapshot removes both keys of slot. Missing keys are not an error.
func ClearSnapshot(ctx context.Context, st Store, slot string) error {
	for _, key := range []string{StateKey, LedgerKey} {
		if err := st.Delete(ctx, slot, key); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}
