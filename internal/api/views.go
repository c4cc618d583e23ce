package api

import (
	"time"

	"cashflow/internal/game"
	"cashflow/internal/money"
)

type AccountView struct {
	Kind         string  `json:"kind"`
	Quantity     float64 `json:"quantity"`
	ValuePerUnit float64 `json:"value_per_unit"`
	Risk         float64 `json:"risk"`
	Value        float64 `json:"value"`
}

type StateView struct {
	Cash               float64       `json:"cash"`
	PortfolioValue     float64       `json:"portfolio_value"`
	NetWorth           float64       `json:"net_worth"`
	Accounts           []AccountView `json:"accounts"`
	AdvisorHired       bool          `json:"advisor_hired"`
	PRProtection       float64       `json:"pr_protection"`
	HasVehicle         bool          `json:"has_vehicle"`
	WorkCooldownMS     int64         `json:"work_cooldown_ms"`
	WorkCount          int           `json:"work_count"`
	SecondJobAvailable bool          `json:"second_job_available"`
	CompanyOwned       bool          `json:"company_owned"`
	CompanyAge         int           `json:"company_age"`
	TransactionCounter int64         `json:"transaction_counter"`
	AccountTypes       []string      `json:"account_types"`
	ActiveFilters      []string      `json:"active_filters"`
}

// EntryView is a ledger entry; amount and total are null for informational entries.
type EntryView struct {
	ID          int64     `json:"id"`
	Group       string    `json:"group,omitempty"`
	AccountType string    `json:"account_type"`
	Description string    `json:"description"`
	Amount      *float64  `json:"amount"`
	Total       *float64  `json:"total"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActionView describes one catalog action as the player currently sees it.
// CooldownMS is -1 for one-shot actions.
type ActionView struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Available  bool    `json:"available"`
	Disabled   bool    `json:"disabled"`
	Remaining  float64 `json:"remaining"`
	CooldownMS int64   `json:"cooldown_ms"`
}

type ActionResult struct {
	Action  string    `json:"action"`
	Applied bool      `json:"applied"`
	State   StateView `json:"state"`
}

func NewStateView(st game.State) StateView {
	out := StateView{
		Cash:               money.Round(st.Cash),
		PortfolioValue:     money.Round(st.TotalPortfolioValue),
		NetWorth:           money.Round(st.NetWorth()),
		Accounts:           make([]AccountView, 0, len(game.Kinds)),
		AdvisorHired:       st.AdvisorHired,
		PRProtection:       st.PRProtection,
		HasVehicle:         st.HasVehicle,
		WorkCooldownMS:     st.WorkCooldown.Milliseconds(),
		WorkCount:          st.WorkCount,
		SecondJobAvailable: st.SecondJobAvailable,
		CompanyOwned:       st.CompanyOwned,
		CompanyAge:         st.CompanyAge,
		TransactionCounter: st.TransactionCounter,
		AccountTypes:       st.UniqueAccountTypes.Sorted(),
		ActiveFilters:      st.ActiveFilters.Sorted(),
	}
	for _, k := range game.Kinds {
		inv := st.Portfolio[k]
		out.Accounts = append(out.Accounts, AccountView{
			Kind:         k.Key(),
			Quantity:     inv.Quantity,
			ValuePerUnit: inv.ValuePerUnit,
			Risk:         inv.RiskWeight,
			Value:        money.Round(inv.Value()),
		})
	}
	return out
}

func NewEntryViews(entries []game.Transaction) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		v := EntryView{
			ID:          e.ID,
			Group:       e.Group,
			AccountType: e.AccountType,
			Description: e.Description,
			Timestamp:   e.Timestamp,
		}
		if e.Monetary() {
			amount, total := money.Round(e.Amount), money.Round(e.Total)
			v.Amount, v.Total = &amount, &total
		}
		out = append(out, v)
	}
	return out
}

func NewActionViews(s *game.Session) []ActionView {
	st := s.State()
	out := make([]ActionView, 0, len(game.Catalog))
	for _, a := range game.Catalog {
		cd := a.Cooldown
		if a.ID == game.ActionWork {
			cd = st.WorkCooldown
		}
		ms := cd.Milliseconds()
		if cd == game.Forever {
			ms = -1
		}
		out = append(out, ActionView{
			ID:         string(a.ID),
			Label:      a.Label,
			Available:  a.Available(st),
			Disabled:   s.IsDisabled(a.ID),
			Remaining:  s.RemainingFraction(a.ID),
			CooldownMS: ms,
		})
	}
	return out
}
