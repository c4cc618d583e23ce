package game

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func sessionWith(t *testing.T, clock *fakeClock, mutate func(*State)) *Session {
	t.Helper()
	st := InitialState()
	if mutate != nil {
		mutate(&st)
	}
	return NewSession(WithClock(clock.Now), WithSnapshot(Snapshot{State: st}))
}

func TestWorkCreditsCashAndLogs(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(WithClock(clock.Now))

	if !s.Work() {
		t.Fatalf("work should always apply")
	}
	st := s.State()
	if st.Cash != 110 || st.WorkCount != 1 {
		t.Fatalf("cash=%v workCount=%d", st.Cash, st.WorkCount)
	}
	entries := s.Ledger()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != 1 || e.AccountType != CategoryCash || e.Amount != 10 || e.Total != 110 || !e.Monetary() {
		t.Fatalf("unexpected entry %+v", e)
	}
	if !e.Timestamp.Equal(clock.Now()) {
		t.Fatalf("timestamp = %v", e.Timestamp)
	}
	if !st.UniqueAccountTypes.Has(CategoryCash) || st.TransactionCounter != 1 {
		t.Fatalf("bookkeeping not updated: %+v", st)
	}

	if !s.IsDisabled(ActionWork) {
		t.Fatalf("work should be cooling down")
	}
	clock.Advance(DefaultWorkCooldown)
	if s.IsDisabled(ActionWork) {
		t.Fatalf("work cooldown should have elapsed")
	}
}

func TestBuyVehicleIsOneShotAndShortensWork(t *testing.T) {
	clock := newFakeClock()
	s := sessionWith(t, clock, func(st *State) { st.Cash = 1200 })

	if !s.BuyVehicle() {
		t.Fatalf("vehicle purchase should apply")
	}
	st := s.State()
	if !st.HasVehicle || st.WorkCooldown != VehicleWorkCooldown || st.Cash != 700 {
		t.Fatalf("unexpected state after purchase: %+v", st)
	}
	if !s.IsDisabled(ActionBuyVehicle) {
		t.Fatalf("vehicle purchase must be disabled for good")
	}
	if s.BuyVehicle() {
		t.Fatalf("second purchase must not apply")
	}
	if got := s.State().Cash; got != 700 {
		t.Fatalf("second purchase changed cash: %v", got)
	}

	s.Work()
	clock.Advance(VehicleWorkCooldown)
	if s.IsDisabled(ActionWork) {
		t.Fatalf("vehicle work cooldown should be %v", VehicleWorkCooldown)
	}
}

func TestFailedGuardChangesNothing(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(WithClock(clock.Now))
	before := s.State()

	for _, fn := range []func() bool{s.BuyVehicle, s.StartCompany, s.WithdrawSavings, s.CashOutStocks} {
		if fn() {
			t.Fatalf("expected guard to reject with starting cash")
		}
	}
	after := s.State()
	if after.Cash != before.Cash || len(s.Ledger()) != 0 {
		t.Fatalf("rejected actions mutated state: %+v", after)
	}
	if s.IsDisabled(ActionBuyVehicle) || s.IsDisabled(ActionCashOutStocks) {
		t.Fatalf("rejected actions must not arm cooldowns")
	}
}

func TestInvestMovesCashIntoAccount(t *testing.T) {
	tests := []struct {
		name   string
		run    func(*Session) bool
		kind   Kind
		amount float64
	}{
		{"etfs", (*Session).InvestETFs, ETFs, 100},
		{"stocks", (*Session).InvestStocks, Stocks, 50},
		{"bonds", (*Session).InvestBonds, Bonds, 100},
		{"real estate", (*Session).InvestRealEstate, RealEstate, 200},
		{"hysa", (*Session).DepositHYSA, Savings, 100},
	}
	for _, tc := range tests {
		clock := newFakeClock()
		s := sessionWith(t, clock, func(st *State) { st.Cash = 300 })
		if !tc.run(s) {
			t.Fatalf("%s: expected invest to apply", tc.name)
		}
		st := s.State()
		if st.Cash != 300-tc.amount {
			t.Fatalf("%s: cash = %v", tc.name, st.Cash)
		}
		if st.Portfolio[tc.kind].Quantity != tc.amount {
			t.Fatalf("%s: quantity = %v", tc.name, st.Portfolio[tc.kind].Quantity)
		}
		if !approx(st.TotalPortfolioValue, st.Portfolio.TotalValue()) {
			t.Fatalf("%s: cached total out of date", tc.name)
		}
		entries := s.Ledger()
		if len(entries) != 2 || entries[0].Group != entries[1].Group || entries[0].Group == "" {
			t.Fatalf("%s: expected two grouped entries, got %+v", tc.name, entries)
		}
		if entries[1].AccountType != tc.kind.Category() {
			t.Fatalf("%s: account entry = %q", tc.name, entries[1].AccountType)
		}
	}
}

func TestInvestRequiresCash(t *testing.T) {
	s := sessionWith(t, newFakeClock(), func(st *State) { st.Cash = 199 })
	if s.InvestRealEstate() {
		t.Fatalf("real estate needs 200")
	}
	if !s.InvestStocks() {
		t.Fatalf("stocks need only 50")
	}
}

func TestWithdrawSavings(t *testing.T) {
	s := sessionWith(t, newFakeClock(), func(st *State) {
		st.Cash = 0
		st.Portfolio[Savings].Quantity = 150
	})
	if !s.WithdrawSavings() {
		t.Fatalf("withdraw should apply")
	}
	st := s.State()
	if st.Cash != 100 || st.Portfolio[Savings].Quantity != 50 {
		t.Fatalf("unexpected balances: %+v", st)
	}
}

func TestCashOutStocksAfterTax(t *testing.T) {
	s := sessionWith(t, newFakeClock(), func(st *State) {
		st.Cash = 0
		st.Portfolio[Stocks].Quantity = 100
	})
	if !s.CashOutStocks() {
		t.Fatalf("cash out should apply")
	}
	st := s.State()
	if !approx(st.Cash, 104) {
		t.Fatalf("net proceeds = %v want 104", st.Cash)
	}
	if st.Portfolio[Stocks].Quantity != 0 || st.TotalPortfolioValue != 0 {
		t.Fatalf("account not liquidated: %+v", st.Portfolio[Stocks])
	}
	entries := s.Ledger()
	if len(entries) != 2 || !approx(entries[0].Amount, -105) || entries[0].Total != 0 {
		t.Fatalf("unexpected ledger: %+v", entries)
	}
	if entries[1].Description != "Net proceeds from stocks sale (after tax)" {
		t.Fatalf("description = %q", entries[1].Description)
	}
	if !s.IsDisabled(ActionCashOutStocks) {
		t.Fatalf("cash out should be cooling down")
	}
}

func TestGenericCashOut(t *testing.T) {
	s := sessionWith(t, newFakeClock(), func(st *State) { st.Portfolio[Bonds].Quantity = 10 })
	if !s.CashOut(Bonds) {
		t.Fatalf("bonds cash out should apply")
	}
	if !s.IsDisabled(ActionID("cashout-bonds")) {
		t.Fatalf("expected bonds cash-out cooldown")
	}
}

func TestOneShotUpgrades(t *testing.T) {
	clock := newFakeClock()
	s := sessionWith(t, clock, func(st *State) { st.Cash = 2000 })

	if !s.HireAdvisor() || s.HireAdvisor() {
		t.Fatalf("advisor must apply exactly once")
	}
	st := s.State()
	if !approx(st.Portfolio[Stocks].ValuePerUnit, 1.06) || !approx(st.Cash, 1950) {
		t.Fatalf("advisor effect wrong: %+v", st)
	}

	if !s.StartCompany() || s.StartCompany() {
		t.Fatalf("company must start exactly once")
	}
	st = s.State()
	if !st.CompanyOwned || st.CompanyAge != 0 || st.Portfolio[Company].Quantity != 1000 {
		t.Fatalf("company not started: %+v", st)
	}
	if st.Portfolio[Company].ValuePerUnit != 1.0 || !approx(st.Cash, 950) {
		t.Fatalf("company valuation wrong: %+v", st.Portfolio[Company])
	}
	clock.Advance(time.Hour)
	if !s.IsDisabled(ActionStartCompany) || !s.IsDisabled(ActionHireAdvisor) {
		t.Fatalf("one-shot actions must stay disabled")
	}
}

func TestManagePRStacks(t *testing.T) {
	s := sessionWith(t, newFakeClock(), func(st *State) { st.Cash = 45 })
	if !s.ManagePR() || !s.ManagePR() {
		t.Fatalf("two PR purchases should apply")
	}
	if s.ManagePR() {
		t.Fatalf("third purchase lacks cash")
	}
	if got := s.State().PRProtection; !approx(got, 0.2) {
		t.Fatalf("protection = %v", got)
	}
}

func TestEarnEquityAndSecondJob(t *testing.T) {
	s := NewSession(WithClock(newFakeClock().Now))
	if !s.EarnEquity() {
		t.Fatalf("equity should apply")
	}
	if got := s.State().Portfolio[Equity].Quantity; got != 50 {
		t.Fatalf("equity = %v", got)
	}
	if !s.WorkSecondJob() {
		t.Fatalf("second job should apply")
	}
	st := s.State()
	if st.Cash != 115 || st.WorkCount != 1 {
		t.Fatalf("second job effect: %+v", st)
	}
}

func TestPerformDispatch(t *testing.T) {
	s := NewSession(WithClock(newFakeClock().Now))
	applied, err := s.Perform(" Earn-Money ")
	if err != nil || !applied {
		t.Fatalf("perform earn-money: %v %v", applied, err)
	}
	if _, err := s.Perform("rob-bank"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestCatalogAvailability(t *testing.T) {
	st := InitialState()
	a, err := LookupAction(ActionWorkSecondJob)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if a.Available(st) {
		t.Fatalf("second job should be locked before 5 shifts")
	}
	st.WorkCount = 5
	if !a.Available(st) {
		t.Fatalf("second job should unlock at 5 shifts")
	}
	st.SecondJobAvailable = false
	if a.Available(st) {
		t.Fatalf("second job gone after layoff")
	}

	seen := make(map[ActionID]bool)
	for _, a := range Catalog {
		if seen[a.ID] {
			t.Fatalf("duplicate catalog id %q", a.ID)
		}
		seen[a.ID] = true
		if a.step.fn == nil || a.step.id != a.ID || a.Available == nil {
			t.Fatalf("catalog entry %q incomplete", a.ID)
		}
	}
}

func TestAttemptGatesAvailabilityAndCooldown(t *testing.T) {
	clock := newFakeClock()
	tests := []struct {
		name    string
		mutate  func(*State)
		id      ActionID
		wantErr error
		applied bool
		cash    float64
	}{
		{"second job before five shifts", nil, ActionWorkSecondJob, ErrActionUnavailable, false, 100},
		{"second job after layoff", func(st *State) {
			st.WorkCount = 9
			st.SecondJobAvailable = false
		}, ActionWorkSecondJob, ErrActionUnavailable, false, 100},
		{"second job unlocked", func(st *State) { st.WorkCount = 5 }, ActionWorkSecondJob, nil, true, 115},
		{"vehicle already owned", func(st *State) {
			st.Cash = 900
			st.HasVehicle = true
		}, ActionBuyVehicle, ErrActionUnavailable, false, 900},
		{"unaffordable vehicle", nil, ActionBuyVehicle, nil, false, 100},
		{"unknown action", nil, "rob-bank", ErrUnknownAction, false, 100},
	}
	for _, tt := range tests {
		s := sessionWith(t, clock, tt.mutate)
		applied, err := s.Attempt(tt.id)
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
		if tt.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if applied != tt.applied || s.State().Cash != tt.cash {
			t.Fatalf("%s: applied=%v cash=%v", tt.name, applied, s.State().Cash)
		}
	}

	s := NewSession(WithClock(clock.Now))
	if applied, err := s.Attempt(ActionWork); err != nil || !applied {
		t.Fatalf("first shift: %v %v", applied, err)
	}
	if _, err := s.Attempt(ActionWork); !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("expected ErrCoolingDown, got %v", err)
	}
	if s.State().Cash != 110 || len(s.Ledger()) != 1 {
		t.Fatalf("refused attempt must not change the game: %+v", s.State())
	}
	clock.Advance(DefaultWorkCooldown)
	if applied, err := s.Attempt(ActionWork); err != nil || !applied {
		t.Fatalf("shift after cooldown: %v %v", applied, err)
	}
}

func TestConcurrentAttemptsApplyOnce(t *testing.T) {
	s := NewSession(WithClock(newFakeClock().Now))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Attempt(ActionWork)
		}()
	}
	wg.Wait()
	if got := s.State().Cash; got != 110 {
		t.Fatalf("cooldown let %v worth of shifts through", got-StartingCash)
	}
}
