package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"cashflow/internal/api"
	"cashflow/internal/game"
)

func TestClientAgainstServer(t *testing.T) {
	s := game.NewSession()
	ts := httptest.NewServer(api.New(s, api.Options{}).Handler())
	defer ts.Close()

	ctx := context.Background()
	c := NewClient(strings.TrimPrefix(ts.URL, "http://"))
	if err := c.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}

	res, err := c.Perform(ctx, "earn-money")
	if err != nil || !res.Applied || res.State.Cash != 110 {
		t.Fatalf("perform: %+v %v", res, err)
	}
	_, err = c.Perform(ctx, "earn-money")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	filters, err := c.ToggleFilter(ctx, "Cash")
	if err != nil || len(filters) != 1 || filters[0] != "Cash" {
		t.Fatalf("toggle: %v %v", filters, err)
	}
	entries, err := c.Ledger(ctx, true, 1)
	if err != nil || len(entries) != 1 || entries[0].Amount == nil || *entries[0].Amount != 10 {
		t.Fatalf("ledger: %+v %v", entries, err)
	}
	actions, err := c.Actions(ctx)
	if err != nil || len(actions) != len(game.Catalog) {
		t.Fatalf("actions: %d %v", len(actions), err)
	}

	st, err := c.Reset(ctx)
	if err != nil || st.Cash != game.StartingCash {
		t.Fatalf("reset: %+v %v", st, err)
	}
	st, err = c.State(ctx)
	if err != nil || st.TransactionCounter != 1 {
		t.Fatalf("state after reset should hold only the greeting: %+v %v", st, err)
	}
}

func TestRemoteProfile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadRemote(dir); err == nil {
		t.Fatalf("expected error without a saved remote")
	}
	if err := SaveRemote(dir, Remote{Addr: "127.0.0.1:7777"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	r, err := LoadRemote(dir)
	if err != nil || r.Addr != "127.0.0.1:7777" {
		t.Fatalf("load: %+v %v", r, err)
	}
	if err := ClearRemote(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := LoadRemote(dir); !os.IsNotExist(err) {
		t.Fatalf("remote survived clear: %v", err)
	}
}
