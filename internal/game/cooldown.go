package game

import "time"

type cooldown struct {
	duration time.Duration
	start    time.Time
}

// Cooldowns tracks per-action timers. An action is ready unless it was armed and its
// duration has not yet elapsed; Forever never elapses. Not safe for concurrent use on
// its own: Session guards it with the same lock as the state.
type Cooldowns struct {
	entries map[ActionID]cooldown
	now     func() time.Time
}

func NewCooldowns(now func() time.Time) *Cooldowns {
	if now == nil {
		now = time.Now
	}
	return &Cooldowns{entries: make(map[ActionID]cooldown), now: now}
}

func (c *Cooldowns) Arm(id ActionID, d time.Duration) {
	if d <= 0 {
		return
	}
	c.entries[id] = cooldown{duration: d, start: c.now()}
}

func (c *Cooldowns) IsDisabled(id ActionID) bool {
	cd, ok := c.entries[id]
	if !ok {
		return false
	}
	if cd.duration == Forever {
		return true
	}
	if c.now().Sub(cd.start) >= cd.duration {
		delete(c.entries, id)
		return false
	}
	return true
}

// RemainingFraction is 1 right after arming and falls to 0 as the cooldown elapses.
// Unarmed and permanent cooldowns report 0.
func (c *Cooldowns) RemainingFraction(id ActionID) float64 {
	cd, ok := c.entries[id]
	if !ok || cd.duration == Forever {
		return 0
	}
	elapsed := float64(c.now().Sub(cd.start)) / float64(cd.duration)
	if elapsed > 1 {
		elapsed = 1
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return 1 - elapsed
}

func (c *Cooldowns) Reset() {
	c.entries = make(map[ActionID]cooldown)
}
