package game

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	StartingCash        = 100.0
	CapitalGainsTaxRate = 0.20

	DefaultWorkCooldown = 4 * time.Second
	VehicleWorkCooldown = 2 * time.Second

	// Forever is the cooldown of one-shot actions: armed once, never released.
	Forever = time.Duration(math.MaxInt64)
)

const (
	CategoryCash  = "Cash"
	CategoryEvent = "Event"
)

var (
	ErrUnknownKind       = errors.New("unknown account kind")
	ErrUnknownAction     = errors.New("unknown action")
	ErrActionUnavailable = errors.New("action not available")
	ErrCoolingDown       = errors.New("action is cooling down")
)

// Kind is one of the seven fixed account kinds of a portfolio.
type Kind int

const (
	Savings Kind = iota
	ETFs
	Stocks
	Bonds
	RealEstate
	Equity
	Company

	kindCount
)

// Kinds lists every account kind in display order.
var Kinds = [kindCount]Kind{Savings, ETFs, Stocks, Bonds, RealEstate, Equity, Company}

var kindKeys = [kindCount]string{"savings", "etfs", "stocks", "bonds", "realEstate", "equity", "company"}

// Key is the persisted key of the kind, e.g. "realEstate".
func (k Kind) Key() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindKeys[k]
}

// Category is the ledger account type of the kind, e.g. "RealEstate".
func (k Kind) Category() string {
	key := k.Key()
	return strings.ToUpper(key[:1]) + key[1:]
}

func (k Kind) String() string { return k.Key() }

func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds {
		if strings.EqualFold(s, k.Key()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Investment is one account: how many units are held, what each is worth, and how exposed it is
// to scandals. RiskWeight 0 means immune.
type Investment struct {
	Quantity     float64
	ValuePerUnit float64
	RiskWeight   float64
}

func (i Investment) Value() float64 {
	return i.Quantity * i.ValuePerUnit
}

// Portfolio is indexed by Kind.
type Portfolio [kindCount]Investment

// TotalValue sums the valuation of every account.
func (p Portfolio) TotalValue() float64 {
	total := 0.0
	for _, inv := range p {
		total += inv.Value()
	}
	return total
}

func InitialPortfolio() Portfolio {
	var p Portfolio
	p[Savings] = Investment{ValuePerUnit: 1.005, RiskWeight: 0}
	p[ETFs] = Investment{ValuePerUnit: 1.04, RiskWeight: 0.08}
	p[Stocks] = Investment{ValuePerUnit: 1.05, RiskWeight: 0.10}
	p[Bonds] = Investment{ValuePerUnit: 1.02, RiskWeight: 0.05}
	p[RealEstate] = Investment{ValuePerUnit: 1.08, RiskWeight: 0.15}
	p[Equity] = Investment{ValuePerUnit: 1.06, RiskWeight: 0.12}
	p[Company] = Investment{ValuePerUnit: 1.0, RiskWeight: 0.20}
	return p
}

// Set is an unordered collection of account types.
type Set map[string]struct{}

func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for it := range s {
		out[it] = struct{}{}
	}
	return out
}

// State is the root aggregate of one game session.
type State struct {
	Cash                float64
	Portfolio           Portfolio
	AdvisorHired        bool
	PRProtection        float64
	TotalPortfolioValue float64
	HasVehicle          bool
	WorkCooldown        time.Duration
	WorkCount           int
	SecondJobAvailable  bool
	CompanyOwned        bool
	CompanyAge          int
	TransactionCounter  int64
	UniqueAccountTypes  Set
	ActiveFilters       Set
}

func InitialState() State {
	return State{
		Cash:               StartingCash,
		Portfolio:          InitialPortfolio(),
		WorkCooldown:       DefaultWorkCooldown,
		SecondJobAvailable: true,
		UniqueAccountTypes: NewSet(),
		ActiveFilters:      NewSet(),
	}
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	out := s
	out.UniqueAccountTypes = s.UniqueAccountTypes.Clone()
	out.ActiveFilters = s.ActiveFilters.Clone()
	return out
}

// NetWorth is cash plus the cached portfolio value.
func (s State) NetWorth() float64 {
	return s.Cash + s.TotalPortfolioValue
}

func (s *State) recomputeTotal() {
	s.TotalPortfolioValue = s.Portfolio.TotalValue()
}

// Proceeds is the breakdown of liquidating one account.
type Proceeds struct {
	Value float64
	Gain  float64
	Tax   float64
	Net   float64
}

// CashOut values a full liquidation of inv against a unit cost basis of 1.
func CashOut(inv Investment) Proceeds {
	value := inv.Value()
	gain := inv.Quantity * (inv.ValuePerUnit - 1)
	tax := gain * CapitalGainsTaxRate
	return Proceeds{
		Value: value,
		Gain:  gain,
		Tax:   tax,
		Net:   value - tax,
	}
}
