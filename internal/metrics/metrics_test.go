package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"cashflow/internal/game"
)

func TestCollectorCountsActionsAndTicks(t *testing.T) {
	c := NewCollector()
	s := game.NewSession(game.WithInstrument(c))

	s.Work()
	s.BuyVehicle()
	s.RunYieldTick()

	if got := testutil.ToFloat64(c.actions.WithLabelValues(string(game.ActionWork), "applied")); got != 1 {
		t.Fatalf("applied work = %v", got)
	}
	if got := testutil.ToFloat64(c.actions.WithLabelValues(string(game.ActionBuyVehicle), "rejected")); got != 1 {
		t.Fatalf("rejected vehicle = %v", got)
	}
	if got := testutil.ToFloat64(c.ticks.WithLabelValues(game.TickYield, "false")); got != 1 {
		t.Fatalf("idle yield ticks = %v", got)
	}
}

func TestCollectorObserveSetsGauges(t *testing.T) {
	c := NewCollector()
	s := game.NewSession()
	s.Subscribe(c.Observe)

	s.InvestStocks()
	if got := testutil.ToFloat64(c.cash); got != 50 {
		t.Fatalf("cash gauge = %v", got)
	}
	if got := testutil.ToFloat64(c.accountValue.WithLabelValues("stocks")); got != 52.5 {
		t.Fatalf("stocks gauge = %v", got)
	}
	if got := testutil.ToFloat64(c.ledgerEntries); got != 2 {
		t.Fatalf("ledger gauge = %v", got)
	}

	s.Reset()
	if got := testutil.ToFloat64(c.resets); got != 1 {
		t.Fatalf("resets = %v", got)
	}
	if got := testutil.ToFloat64(c.portfolioValue); got != 0 {
		t.Fatalf("portfolio gauge after reset = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.PersistFailed(errors.New("boom"))
	c.ActionPerformed(game.ActionWork, true)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"cashflow_persist_failures_total 1", `cashflow_actions_total{action="earn-money",outcome="applied"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}
