package game

import (
	"fmt"
	"strings"
	"time"
)

// ActionID names a player action; it doubles as the action's cooldown key.
type ActionID string

const (
	ActionWork             ActionID = "earn-money"
	ActionBuyVehicle       ActionID = "buy-vehicle"
	ActionWorkSecondJob    ActionID = "work-second-job"
	ActionDepositHYSA      ActionID = "deposit-hysa"
	ActionWithdrawSavings  ActionID = "withdraw-savings"
	ActionInvestETFs       ActionID = "invest-etfs"
	ActionEarnEquity       ActionID = "earn-equity"
	ActionInvestStocks     ActionID = "invest-stocks"
	ActionInvestBonds      ActionID = "invest-bonds"
	ActionInvestRealEstate ActionID = "invest-real-estate"
	ActionStartCompany     ActionID = "start-company"
	ActionHireAdvisor      ActionID = "hire-advisor"
	ActionManagePR         ActionID = "manage-pr"
	ActionCashOutStocks    ActionID = "cashout-stocks"
	ActionCashOutETFs      ActionID = "cashout-etfs"
	ActionCashOutEquity    ActionID = "cashout-equity"
)

const (
	secondJobUnlockWorkCount = 5
	cashOutCooldown          = 5 * time.Second
)

// Action describes one catalog entry for collaborators that render or dispatch actions.
type Action struct {
	ID    ActionID
	Label string
	// Cooldown is the fixed delay armed after the action applies. Work uses the
	// state's WorkCooldown instead and leaves this zero.
	Cooldown time.Duration
	// Available reports whether the action should be offered at all.
	Available func(State) bool

	step transition
}

// transition is one guarded state change together with the cooldown it arms.
type transition struct {
	id       ActionID
	cooldown func(State) time.Duration
	fn       func(j *journal) bool
}

func always(State) bool { return true }

func secondJobOpen(s State) bool {
	return s.SecondJobAvailable && s.WorkCount >= secondJobUnlockWorkCount
}

// Catalog lists every player action in display order.
var Catalog = []Action{
	{ID: ActionWork, Label: "Work", Available: always, step: workStep},
	{ID: ActionBuyVehicle, Label: "Buy Vehicle ($500)", Cooldown: Forever,
		Available: func(s State) bool { return !s.HasVehicle }, step: buyVehicleStep},
	{ID: ActionWorkSecondJob, Label: "Work Second Job", Cooldown: 8 * time.Second, Available: secondJobOpen, step: secondJobStep},
	{ID: ActionDepositHYSA, Label: "Deposit to HYSA ($100)", Cooldown: 5 * time.Second, Available: always, step: depositStep},
	{ID: ActionWithdrawSavings, Label: "Withdraw Savings ($100)", Cooldown: 5 * time.Second, Available: always, step: withdrawStep},
	{ID: ActionInvestETFs, Label: "Invest in ETFs ($100)", Cooldown: 15 * time.Second, Available: always, step: investETFsStep},
	{ID: ActionEarnEquity, Label: "Earn Company Equity", Cooldown: 20 * time.Second, Available: always, step: equityStep},
	{ID: ActionInvestStocks, Label: "Invest in Stocks ($50)", Cooldown: 10 * time.Second, Available: always, step: investStocksStep},
	{ID: ActionInvestBonds, Label: "Invest in Bonds ($100)", Cooldown: 20 * time.Second, Available: always, step: investBondsStep},
	{ID: ActionInvestRealEstate, Label: "Invest in Real Estate ($200)", Cooldown: 40 * time.Second, Available: always, step: investRealEstateStep},
	{ID: ActionStartCompany, Label: "Start Company ($1000)", Cooldown: Forever,
		Available: func(s State) bool { return !s.CompanyOwned }, step: startCompanyStep},
	{ID: ActionHireAdvisor, Label: "Hire Advisor ($50)", Cooldown: Forever,
		Available: func(s State) bool { return !s.AdvisorHired }, step: advisorStep},
	{ID: ActionManagePR, Label: "Manage PR ($20)", Cooldown: 4 * time.Second, Available: always, step: prStep},
	{ID: ActionCashOutStocks, Label: "Cash Out Stocks", Cooldown: cashOutCooldown, Available: always, step: cashOutStep(ActionCashOutStocks, Stocks)},
	{ID: ActionCashOutETFs, Label: "Cash Out ETFs", Cooldown: cashOutCooldown, Available: always, step: cashOutStep(ActionCashOutETFs, ETFs)},
	{ID: ActionCashOutEquity, Label: "Cash Out Equity", Cooldown: cashOutCooldown, Available: always, step: cashOutStep(ActionCashOutEquity, Equity)},
}

func LookupAction(id ActionID) (Action, error) {
	id = ActionID(strings.ToLower(strings.TrimSpace(string(id))))
	for _, a := range Catalog {
		if a.ID == id {
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, id)
}

// Perform dispatches a catalog action by id without consulting availability or
// cooldowns. Player-facing callers use Attempt.
func (s *Session) Perform(id ActionID) (bool, error) {
	a, err := LookupAction(id)
	if err != nil {
		return false, err
	}
	return s.apply(a.step), nil
}

// Attempt performs a catalog action the way a player would. The availability gate,
// the cooldown check and the transition all run under one lock, so concurrent callers
// cannot both get through. A refused attempt returns ErrActionUnavailable or
// ErrCoolingDown; a precondition that fails inside the transition returns false.
func (s *Session) Attempt(id ActionID) (bool, error) {
	a, err := LookupAction(id)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !a.Available(s.state) {
		s.log.Debug("action not available", "action", string(a.ID))
		return false, fmt.Errorf("%w: %s", ErrActionUnavailable, a.ID)
	}
	if s.cooldowns.IsDisabled(a.ID) {
		return false, fmt.Errorf("%w: %s", ErrCoolingDown, a.ID)
	}
	return s.applyLocked(a.step), nil
}

func (s *Session) apply(t transition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(t)
}

// applyLocked runs one guarded transition. On success the action's cooldown is armed
// with the duration chosen from the pre-transition state; a failed guard changes
// nothing at all.
func (s *Session) applyLocked(t transition) bool {
	d := t.cooldown(s.state)
	applied := s.commitLocked(t.fn)
	if applied {
		s.cooldowns.Arm(t.id, d)
		s.log.Debug("action applied", "action", string(t.id), "cash", s.state.Cash)
	} else {
		s.log.Debug("action precondition not met", "action", string(t.id))
	}
	s.instrument.ActionPerformed(t.id, applied)
	return applied
}

func fixed(d time.Duration) func(State) time.Duration {
	return func(State) time.Duration { return d }
}

var workStep = transition{ActionWork, func(st State) time.Duration { return st.WorkCooldown }, func(j *journal) bool {
	j.st.Cash += 10
	j.st.WorkCount++
	j.cash("Worked for Money", 10)
	return true
}}

var buyVehicleStep = transition{ActionBuyVehicle, fixed(Forever), func(j *journal) bool {
	if j.st.Cash < 500 || j.st.HasVehicle {
		return false
	}
	j.st.Cash -= 500
	j.st.HasVehicle = true
	j.st.WorkCooldown = VehicleWorkCooldown
	j.cash("Bought Vehicle - Work time reduced", -500)
	return true
}}

var secondJobStep = transition{ActionWorkSecondJob, fixed(8 * time.Second), func(j *journal) bool {
	j.st.Cash += 15
	j.st.WorkCount++
	j.cash("Worked Second Job", 15)
	return true
}}

var depositStep = transition{ActionDepositHYSA, fixed(5 * time.Second), func(j *journal) bool {
	if j.st.Cash < 100 {
		return false
	}
	j.st.Cash -= 100
	j.st.Portfolio[Savings].Quantity += 100
	j.cash("Deposited to HYSA", -100)
	j.monetary(Savings.Category(), "Deposit", 100, j.st.Portfolio[Savings].Value())
	return true
}}

var withdrawStep = transition{ActionWithdrawSavings, fixed(5 * time.Second), func(j *journal) bool {
	if j.st.Portfolio[Savings].Quantity < 100 {
		return false
	}
	j.st.Cash += 100
	j.st.Portfolio[Savings].Quantity -= 100
	j.cash("Withdrew from HYSA", 100)
	j.monetary(Savings.Category(), "Withdrawal", -100, j.st.Portfolio[Savings].Value())
	return true
}}

// investStep moves amount of cash into kind k.
func investStep(id ActionID, d time.Duration, k Kind, amount float64, description string) transition {
	return transition{id, fixed(d), func(j *journal) bool {
		if j.st.Cash < amount {
			return false
		}
		j.st.Cash -= amount
		j.st.Portfolio[k].Quantity += amount
		j.cash(description, -amount)
		j.monetary(k.Category(), "Investment", amount, j.st.Portfolio[k].Value())
		return true
	}}
}

var (
	investETFsStep       = investStep(ActionInvestETFs, 15*time.Second, ETFs, 100, "Invested in ETFs")
	investStocksStep     = investStep(ActionInvestStocks, 10*time.Second, Stocks, 50, "Invested in Stocks")
	investBondsStep      = investStep(ActionInvestBonds, 20*time.Second, Bonds, 100, "Invested in Bonds")
	investRealEstateStep = investStep(ActionInvestRealEstate, 40*time.Second, RealEstate, 200, "Invested in Real Estate")
)

var equityStep = transition{ActionEarnEquity, fixed(20 * time.Second), func(j *journal) bool {
	j.st.Portfolio[Equity].Quantity += 50
	j.monetary(Equity.Category(), "Earned Company Equity", 50, j.st.Portfolio[Equity].Value())
	return true
}}

var startCompanyStep = transition{ActionStartCompany, fixed(Forever), func(j *journal) bool {
	if j.st.Cash < 1000 || j.st.CompanyOwned {
		return false
	}
	j.st.Cash -= 1000
	j.st.Portfolio[Company].Quantity = 1000
	j.st.Portfolio[Company].ValuePerUnit = 1.0
	j.st.CompanyOwned = true
	j.st.CompanyAge = 0
	j.cash("Started Company", -1000)
	j.monetary(Company.Category(), "Initial Investment", 1000, j.st.Portfolio[Company].Value())
	return true
}}

var advisorStep = transition{ActionHireAdvisor, fixed(Forever), func(j *journal) bool {
	if j.st.Cash < 50 || j.st.AdvisorHired {
		return false
	}
	j.st.Cash -= 50
	j.st.AdvisorHired = true
	for _, k := range Kinds {
		j.st.Portfolio[k].ValuePerUnit += 0.01
	}
	j.cash("Hired a financial advisor. Investment returns improved.", -50)
	return true
}}

var prStep = transition{ActionManagePR, fixed(4 * time.Second), func(j *journal) bool {
	if j.st.Cash < 20 {
		return false
	}
	j.st.Cash -= 20
	j.st.PRProtection += 0.1
	j.cash("Spent on PR management. Protection increased.", -20)
	return true
}}

func cashOutStep(id ActionID, k Kind) transition {
	return transition{id, fixed(cashOutCooldown), func(j *journal) bool {
		inv := j.st.Portfolio[k]
		if inv.Quantity <= 0 {
			return false
		}
		p := CashOut(inv)
		j.st.Cash += p.Net
		j.st.Portfolio[k].Quantity = 0
		j.monetary(k.Category(), "Cashed out", -p.Value, 0)
		j.cash(fmt.Sprintf("Net proceeds from %s sale (after tax)", k.Key()), p.Net)
		return true
	}}
}

func (s *Session) Work() bool       { return s.apply(workStep) }
func (s *Session) BuyVehicle() bool { return s.apply(buyVehicleStep) }

// WorkSecondJob applies unconditionally; Attempt enforces the five-shift unlock and
// the layoff.
func (s *Session) WorkSecondJob() bool    { return s.apply(secondJobStep) }
func (s *Session) DepositHYSA() bool      { return s.apply(depositStep) }
func (s *Session) WithdrawSavings() bool  { return s.apply(withdrawStep) }
func (s *Session) InvestETFs() bool       { return s.apply(investETFsStep) }
func (s *Session) InvestStocks() bool     { return s.apply(investStocksStep) }
func (s *Session) InvestBonds() bool      { return s.apply(investBondsStep) }
func (s *Session) InvestRealEstate() bool { return s.apply(investRealEstateStep) }
func (s *Session) EarnEquity() bool       { return s.apply(equityStep) }
func (s *Session) StartCompany() bool     { return s.apply(startCompanyStep) }
func (s *Session) HireAdvisor() bool      { return s.apply(advisorStep) }
func (s *Session) ManagePR() bool         { return s.apply(prStep) }

func (s *Session) CashOutStocks() bool { return s.apply(cashOutStep(ActionCashOutStocks, Stocks)) }
func (s *Session) CashOutETFs() bool   { return s.apply(cashOutStep(ActionCashOutETFs, ETFs)) }
func (s *Session) CashOutEquity() bool { return s.apply(cashOutStep(ActionCashOutEquity, Equity)) }

// CashOut liquidates any account kind; the catalog exposes stocks, ETFs and equity.
func (s *Session) CashOut(k Kind) bool {
	return s.apply(cashOutStep(ActionID("cashout-"+strings.ToLower(k.Key())), k))
}
