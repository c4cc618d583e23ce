package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cashflow/internal/db"
	"cashflow/internal/game"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	file, err := NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	lite, err := NewSQLiteStore(filepath.Join(dir, "cashflow.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { lite.Close() })
	return map[string]Store{
		"file":   file,
		"sqlite": lite,
		"memory": NewMemoryStore(),
	}
}

func exerciseStore(t *testing.T, name string, st Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := st.Get(ctx, "default", StateKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
	}
	if err := st.Put(ctx, "default", StateKey, []byte(`{"cash":1}`)); err != nil {
		t.Fatalf("%s: put: %v", name, err)
	}
	if err := st.Put(ctx, "default", StateKey, []byte(`{"cash":2}`)); err != nil {
		t.Fatalf("%s: overwrite: %v", name, err)
	}
	got, err := st.Get(ctx, "default", StateKey)
	if err != nil || string(got) != `{"cash":2}` {
		t.Fatalf("%s: get = %s, %v", name, got, err)
	}
	if _, err := st.Get(ctx, "other", StateKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s: slots must be isolated, got %v", name, err)
	}
	if err := st.Delete(ctx, "default", StateKey); err != nil {
		t.Fatalf("%s: delete: %v", name, err)
	}
	if err := st.Delete(ctx, "default", StateKey); err != nil {
		t.Fatalf("%s: deleting a missing key: %v", name, err)
	}
	if _, err := st.Get(ctx, "default", StateKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s: key survived delete: %v", name, err)
	}
	if err := st.Put(ctx, "../escape", StateKey, []byte(`{}`)); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("%s: expected ErrInvalidSlot, got %v", name, err)
	}
}

func TestBackends(t *testing.T) {
	for name, st := range backends(t) {
		exerciseStore(t, name, st)
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("CASHFLOW_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CASHFLOW_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	st, err := NewPostgresStore(ctx, pool, true)
	if err != nil {
		t.Fatalf("postgres store: %v", err)
	}
	defer st.Close()
	_ = ClearSnapshot(ctx, st, "default")
	_ = ClearSnapshot(ctx, st, "other")
	exerciseStore(t, "postgres", st)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		s := game.NewSession()
		s.Work()
		s.InvestStocks()
		s.ToggleFilter("Cash")

		if err := SaveSnapshot(ctx, st, "default", s.Snapshot()); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		snap, found, err := LoadSnapshot(ctx, st, "default")
		if err != nil || !found {
			t.Fatalf("%s: load: found=%v err=%v", name, found, err)
		}
		if snap.State.Cash != 60 || snap.State.Portfolio[game.Stocks].Quantity != 50 {
			t.Fatalf("%s: state = %+v", name, snap.State)
		}
		if len(snap.Ledger) != 3 || !snap.State.ActiveFilters.Has("Cash") {
			t.Fatalf("%s: ledger/filters lost: %+v", name, snap)
		}

		restored := game.NewSession(game.WithSnapshot(snap))
		restored.Work()
		if got := restored.Ledger()[3].ID; got != 4 {
			t.Fatalf("%s: id after reload = %d", name, got)
		}

		if err := ClearSnapshot(ctx, st, "default"); err != nil {
			t.Fatalf("%s: clear: %v", name, err)
		}
		if _, found, err := LoadSnapshot(ctx, st, "default"); found || err != nil {
			t.Fatalf("%s: expected empty slot after clear, found=%v err=%v", name, found, err)
		}
	}
}

func TestLoadSnapshotCorruptState(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_ = st.Put(ctx, "default", StateKey, []byte("not json"))
	if _, found, err := LoadSnapshot(ctx, st, "default"); found || !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, found=%v err=%v", found, err)
	}

	_ = st.Put(ctx, "default", StateKey, []byte(`{"cash": 42}`))
	_ = st.Put(ctx, "default", LedgerKey, []byte(`{"broken": true}`))
	snap, found, err := LoadSnapshot(ctx, st, "default")
	if err != nil || !found {
		t.Fatalf("damaged ledger should not fail the load: %v", err)
	}
	if snap.State.Cash != 42 || len(snap.Ledger) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, driver := range []string{"", DriverFile, DriverSQLite, DriverMemory} {
		st, err := Open(ctx, Options{Driver: driver, Dir: dir, SQLitePath: filepath.Join(dir, "x.db")})
		if err != nil {
			t.Fatalf("open %q: %v", driver, err)
		}
		st.Close()
	}
	if _, err := Open(ctx, Options{Driver: "redis"}); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
