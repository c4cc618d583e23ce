package game

import (
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const greeting = "You awaken with $100 in your pocket. The world of finance is dark and uncertain. Start by earning more money."

// Instrument receives a notification for every action and tick the session runs.
type Instrument interface {
	ActionPerformed(id ActionID, applied bool)
	TickCompleted(tick string, changed bool)
}

type noopInstrument struct{}

func (noopInstrument) ActionPerformed(ActionID, bool) {}
func (noopInstrument) TickCompleted(string, bool)     {}

// Change is delivered to subscribers after every committed mutation.
type Change struct {
	Snapshot Snapshot
	Reset    bool
}

// Session owns the state, ledger and cooldowns of one game. Every mutation, whether a
// player action, a background tick or a reset, is serialized behind one lock.
type Session struct {
	mu         sync.Mutex
	state      State
	ledger     *Ledger
	cooldowns  *Cooldowns
	log        *slog.Logger
	now        func() time.Time
	random     func() float64
	instrument Instrument

	subs    map[int]func(Change)
	nextSub int
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithClock replaces time.Now for ledger timestamps and cooldowns.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom replaces the uniform [0,1) source used by the event tick.
func WithRandom(random func() float64) Option {
	return func(s *Session) {
		if random != nil {
			s.random = random
		}
	}
}

func WithInstrument(in Instrument) Option {
	return func(s *Session) {
		if in != nil {
			s.instrument = in
		}
	}
}

// WithSnapshot restores a persisted state and ledger instead of starting fresh.
func WithSnapshot(snap Snapshot) Option {
	return func(s *Session) {
		s.state = snap.State.Clone()
		if s.state.UniqueAccountTypes == nil {
			s.state.UniqueAccountTypes = NewSet()
		}
		if s.state.ActiveFilters == nil {
			s.state.ActiveFilters = NewSet()
		}
		s.ledger = NewLedger(snap.Ledger)
		s.state.TransactionCounter = s.ledger.NextID() - 1
		for _, e := range snap.Ledger {
			s.state.UniqueAccountTypes[e.AccountType] = struct{}{}
		}
	}
}

func NewSession(opts ...Option) *Session {
	rng := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	s := &Session{
		state:      InitialState(),
		ledger:     NewLedger(nil),
		log:        slog.Default(),
		now:        time.Now,
		random:     rng.Float64,
		instrument: noopInstrument{},
		subs:       make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cooldowns = NewCooldowns(s.now)
	s.state.recomputeTotal()
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Ledger returns a copy of every entry in append order.
func (s *Session) Ledger() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Entries()
}

// FilteredLedger applies the active filters, newest first.
func (s *Session) FilteredLedger() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.ledger.entries, s.state.ActiveFilters)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{State: s.state.Clone(), Ledger: s.ledger.Entries()}
}

// Subscribe registers fn to receive every committed change. fn runs while the session
// lock is held, so it must not block or call back into the session.
func (s *Session) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) publishLocked(reset bool) {
	if len(s.subs) == 0 {
		return
	}
	c := Change{Snapshot: s.snapshotLocked(), Reset: reset}
	for _, fn := range s.subs {
		fn(c)
	}
}

func (s *Session) IsDisabled(id ActionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldowns.IsDisabled(id)
}

func (s *Session) RemainingFraction(id ActionID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldowns.RemainingFraction(id)
}

// ToggleFilter adds accountType to the active filters, or removes it if present.
func (s *Session) ToggleFilter(accountType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ActiveFilters.Has(accountType) {
		delete(s.state.ActiveFilters, accountType)
	} else {
		s.state.ActiveFilters[accountType] = struct{}{}
	}
	s.publishLocked(false)
}

// Reset replaces the state with the initial snapshot, empties the ledger, restarts ids at 1
// and clears every cooldown, all under one lock.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = InitialState()
	s.state.recomputeTotal()
	s.ledger.reset()
	s.cooldowns.Reset()
	s.log.Info("session reset")
	s.publishLocked(true)
}

// Greet writes the opening ledger entry of a brand-new game. It does nothing once the
// ledger holds anything.
func (s *Session) Greet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger.Len() > 0 {
		return false
	}
	return s.commitLocked(func(j *journal) bool {
		j.monetary(CategoryCash, greeting, StartingCash, j.st.Cash)
		return true
	})
}

// journal collects the ledger entries of one transition against a working copy of the
// state. Nothing reaches the session until the transition returns true.
type journal struct {
	st      *State
	entries []Transaction
}

func (j *journal) monetary(account, description string, amount, total float64) {
	j.entries = append(j.entries, Transaction{
		AccountType: account,
		Description: description,
		Kind:        EntryMonetary,
		Amount:      amount,
		Total:       total,
	})
}

func (j *journal) info(account, description string) {
	j.entries = append(j.entries, Transaction{
		AccountType: account,
		Description: description,
		Kind:        EntryInfo,
	})
}

// cash logs a cash movement with the running cash balance as total. Call it after the
// balance has been updated.
func (j *journal) cash(description string, amount float64) {
	j.monetary(CategoryCash, description, amount, j.st.Cash)
}

// commitLocked runs fn on a copy of the state and, if it reports success, installs the
// copy, appends its entries and recomputes the portfolio total.
func (s *Session) commitLocked(fn func(j *journal) bool) bool {
	next := s.state.Clone()
	j := &journal{st: &next}
	if !fn(j) {
		return false
	}
	ts := s.now()
	group := uuid.NewString()
	for _, e := range j.entries {
		e.Group = group
		e.Timestamp = ts
		e = s.ledger.append(e)
		next.UniqueAccountTypes[e.AccountType] = struct{}{}
		next.TransactionCounter = e.ID
	}
	next.recomputeTotal()
	s.state = next
	s.publishLocked(false)
	return true
}
