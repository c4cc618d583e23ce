package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"cashflow/internal/game"
)

const (
	DefaultYieldEvery  = 10 * time.Second
	DefaultEventsEvery = 15 * time.Second
)

var ErrInvalidInterval = errors.New("tick interval must be positive")

type Options struct {
	YieldEvery  time.Duration
	EventsEvery time.Duration
	Logger      *slog.Logger
}

// Engine drives the two background ticks of a session: passive yield with company
// aging, and random events. Both jobs and every lifecycle call go through the
// session lock, so a tick never interleaves with an action or a reset.
type Engine struct {
	mu      sync.Mutex
	session *game.Session
	opts    Options
	log     *slog.Logger
	cron    *cron.Cron
}

func New(session *game.Session, opts Options) *Engine {
	if opts.YieldEvery == 0 {
		opts.YieldEvery = DefaultYieldEvery
	}
	if opts.EventsEvery == 0 {
		opts.EventsEvery = DefaultEventsEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{session: session, opts: opts, log: logger}
}

// Start schedules both jobs. Calling it on a running engine does nothing.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	if e.cron != nil {
		return nil
	}
	if e.opts.YieldEvery < 0 || e.opts.EventsEvery < 0 {
		return ErrInvalidInterval
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(every(e.opts.YieldEvery), e.yieldJob); err != nil {
		return fmt.Errorf("register yield tick: %w", err)
	}
	if _, err := c.AddFunc(every(e.opts.EventsEvery), e.eventJob); err != nil {
		return fmt.Errorf("register events tick: %w", err)
	}
	c.Start()
	e.cron = c
	e.log.Info("tick engine started", "yield_every", e.opts.YieldEvery.String(), "events_every", e.opts.EventsEvery.String())
	return nil
}

// Stop cancels both jobs and waits for a tick in flight to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.cron == nil {
		return
	}
	<-e.cron.Stop().Done()
	e.cron = nil
	e.log.Info("tick engine stopped")
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cron != nil
}

// Reset stops the ticks, resets the session and re-arms the ticks if they were running,
// so no tick scheduled against the old state lands on the new one.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	wasRunning := e.cron != nil
	e.stopLocked()
	e.session.Reset()
	if wasRunning {
		return e.startLocked()
	}
	return nil
}

func (e *Engine) yieldJob() {
	e.session.RunYieldTick()
}

func (e *Engine) eventJob() {
	e.session.RunEventTick()
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
