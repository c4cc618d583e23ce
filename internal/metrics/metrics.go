package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cashflow/internal/game"
)

// Collector exposes the economy of one session. It implements game.Instrument for
// action and tick counters, and Observe keeps the gauges current from session changes.
type Collector struct {
	registry *prometheus.Registry

	actions        *prometheus.CounterVec
	ticks          *prometheus.CounterVec
	persistFailed  prometheus.Counter
	resets         prometheus.Counter
	cash           prometheus.Gauge
	portfolioValue prometheus.Gauge
	netWorth       prometheus.Gauge
	accountValue   *prometheus.GaugeVec
	ledgerEntries  prometheus.Gauge
	companyAge     prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	f := promauto.With(registry)
	c := &Collector{
		registry: registry,
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashflow_actions_total",
			Help: "Player actions by id and outcome (applied or rejected)",
		}, []string{"action", "outcome"}),
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashflow_ticks_total",
			Help: "Background ticks by kind and whether they changed the game",
		}, []string{"tick", "changed"}),
		persistFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "cashflow_persist_failures_total",
			Help: "Snapshot writes that failed",
		}),
		resets: f.NewCounter(prometheus.CounterOpts{
			Name: "cashflow_resets_total",
			Help: "Game resets",
		}),
		cash: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashflow_cash",
			Help: "Liquid cash",
		}),
		portfolioValue: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashflow_portfolio_value",
			Help: "Valuation of all investment accounts",
		}),
		netWorth: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashflow_net_worth",
			Help: "Cash plus portfolio value",
		}),
		accountValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cashflow_account_value",
			Help: "Valuation of each investment account",
		}, []string{"kind"}),
		ledgerEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashflow_ledger_entries",
			Help: "Entries in the ledger",
		}),
		companyAge: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashflow_company_age_ticks",
			Help: "Yield ticks since the company was founded",
		}),
	}
	return c
}

func (c *Collector) ActionPerformed(id game.ActionID, applied bool) {
	outcome := "rejected"
	if applied {
		outcome = "applied"
	}
	c.actions.WithLabelValues(string(id), outcome).Inc()
}

func (c *Collector) TickCompleted(tick string, changed bool) {
	label := "false"
	if changed {
		label = "true"
	}
	c.ticks.WithLabelValues(tick, label).Inc()
}

// Observe refreshes the gauges. Subscribe it to the session.
func (c *Collector) Observe(ch game.Change) {
	st := ch.Snapshot.State
	if ch.Reset {
		c.resets.Inc()
	}
	c.cash.Set(st.Cash)
	c.portfolioValue.Set(st.TotalPortfolioValue)
	c.netWorth.Set(st.NetWorth())
	for _, k := range game.Kinds {
		c.accountValue.WithLabelValues(k.Key()).Set(st.Portfolio[k].Value())
	}
	c.ledgerEntries.Set(float64(len(ch.Snapshot.Ledger)))
	c.companyAge.Set(float64(st.CompanyAge))
}

func (c *Collector) PersistFailed(error) {
	c.persistFailed.Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
