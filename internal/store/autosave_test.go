package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashflow/internal/game"
)

type failingStore struct {
	*MemoryStore
	err error
}

func (f failingStore) Put(context.Context, string, string, []byte) error { return f.err }

func TestAutosaverPersistsLatestChange(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	saver := NewAutosaver(st, "default", nil)

	s := game.NewSession()
	cancel := s.Subscribe(saver.Observe)
	defer cancel()
	s.Work()
	s.Work()

	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	snap, found, err := LoadSnapshot(ctx, st, "default")
	if err != nil || !found {
		t.Fatalf("load: %v %v", found, err)
	}
	if snap.State.Cash != 120 || len(snap.Ledger) != 2 {
		t.Fatalf("latest snapshot not saved: %+v", snap.State)
	}
}

func TestAutosaverClearsOnReset(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	saver := NewAutosaver(st, "default", nil)
	s := game.NewSession()
	s.Subscribe(saver.Observe)

	s.Work()
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	s.Reset()
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("flush after reset: %v", err)
	}
	snap, found, err := LoadSnapshot(ctx, st, "default")
	if err != nil || !found {
		t.Fatalf("fresh state should be saved after reset: %v %v", found, err)
	}
	if snap.State.Cash != game.StartingCash || len(snap.Ledger) != 0 {
		t.Fatalf("reset not persisted: %+v", snap)
	}
}

func TestAutosaverReportsFailures(t *testing.T) {
	boom := errors.New("disk full")
	saver := NewAutosaver(failingStore{MemoryStore: NewMemoryStore(), err: boom}, "default", nil)
	var failures int
	saver.OnFailure = func(err error) {
		if errors.Is(err, boom) {
			failures++
		}
	}
	s := game.NewSession()
	s.Subscribe(saver.Observe)
	s.Work()

	if err := saver.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if failures != 1 {
		t.Fatalf("failures = %d", failures)
	}
	if s.State().Cash != 110 {
		t.Fatalf("game must continue after a failed save")
	}
	if err := saver.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("failed snapshot should be retried, got %v", err)
	}
	if failures != 2 {
		t.Fatalf("failures = %d", failures)
	}
}

type flakyDeleteStore struct {
	*MemoryStore
	failures int
}

func (f *flakyDeleteStore) Delete(ctx context.Context, slot, key string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("store offline")
	}
	return f.MemoryStore.Delete(ctx, slot, key)
}

func TestAutosaverRetriesFailedClear(t *testing.T) {
	ctx := context.Background()
	st := &flakyDeleteStore{MemoryStore: NewMemoryStore()}
	saver := NewAutosaver(st, "default", nil)
	s := game.NewSession()
	s.Subscribe(saver.Observe)

	s.Work()
	s.Work()
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	st.failures = 1
	s.Reset()
	if err := saver.Flush(ctx); err == nil {
		t.Fatalf("expected the clear to fail")
	}
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	snap, found, err := LoadSnapshot(ctx, st, "default")
	if err != nil || !found {
		t.Fatalf("load: %v %v", found, err)
	}
	if snap.State.Cash != game.StartingCash || len(snap.Ledger) != 0 {
		t.Fatalf("old save survived a failed clear: %+v", snap.State)
	}
}

func TestAutosaverRunFlushesOnShutdown(t *testing.T) {
	st := NewMemoryStore()
	saver := NewAutosaver(st, "default", nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		saver.Run(ctx)
		close(done)
	}()

	s := game.NewSession()
	s.Subscribe(saver.Observe)
	s.Work()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("autosaver did not stop")
	}
	snap, found, err := LoadSnapshot(context.Background(), st, "default")
	if err != nil || !found || snap.State.Cash != 110 {
		t.Fatalf("final flush missing: found=%v err=%v", found, err)
	}
}
