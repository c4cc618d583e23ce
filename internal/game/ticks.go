package game

const (
	TickYield  = "yield"
	TickEvents = "events"

	yieldRate = 0.1

	attackChance  = 0.2
	attackMinimum = 0.1
	attackSpread  = 0.3
	layoffChance  = 0.05
)

const layoffNotice = "Life event: Layoffs at your second job. You were one of them. Second job no longer available."

// companyTier returns the per-tick value factor and operating cost for a company of the
// given age: a costly, shrinking startup, then a leaner phase, then compounding growth.
func companyTier(age int) (factor, cost float64) {
	switch {
	case age < 5:
		return 0.95, 100
	case age < 10:
		return 0.98, 50
	default:
		return 1.1 + float64(age-10)*0.05, 0
	}
}

// RunYieldTick pays passive yield on every non-company account and ages the company.
// It reports whether anything changed.
func (s *Session) RunYieldTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.commitLocked(func(j *journal) bool {
		st := j.st
		for _, k := range Kinds {
			inv := st.Portfolio[k]
			if k == Company || inv.Quantity <= 0 {
				continue
			}
			growth := inv.Quantity * (inv.ValuePerUnit - 1) * yieldRate
			if growth < 0 && st.Cash+growth < 0 {
				s.log.Debug("negative yield skipped, cash too low", "kind", k.Key(), "growth", growth)
				continue
			}
			st.Cash += growth
			j.cash("Yield from "+k.Category(), growth)
		}

		if st.CompanyOwned {
			st.CompanyAge++
			factor, cost := companyTier(st.CompanyAge)
			if cost > 0 {
				if st.Cash >= cost {
					st.Cash -= cost
					j.cash("Company operating costs", -cost)
				} else {
					j.info(CategoryEvent, "Company operating costs due, but insufficient cash.")
				}
			}
			company := &st.Portfolio[Company]
			oldValue := company.Value()
			company.ValuePerUnit *= factor
			newValue := company.Value()
			growth := newValue - oldValue
			j.monetary(Company.Category(), "Value Change", growth, newValue)
			if growth > 0 {
				st.Cash += growth
				j.cash("Company Profit", growth)
			}
		}
		return len(j.entries) > 0
	})
	if changed {
		s.log.Info("yield tick applied", "cash", s.state.Cash, "portfolio", s.state.TotalPortfolioValue, "company_age", s.state.CompanyAge)
	}
	s.instrument.TickCompleted(TickYield, changed)
	return changed
}

// RunEventTick rolls for a PR scandal against risky holdings and for a second-job layoff.
// It reports whether anything changed.
func (s *Session) RunEventTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.commitLocked(func(j *journal) bool {
		st := j.st
		if s.random() < attackChance && st.TotalPortfolioValue > 0 {
			impact := (attackMinimum + s.random()*attackSpread) * shieldFactor(st.PRProtection)
			if impact > 0 {
				for _, k := range Kinds {
					inv := &st.Portfolio[k]
					if inv.Quantity <= 0 || inv.RiskWeight <= 0 {
						continue
					}
					indiv := impact * inv.RiskWeight
					loss := inv.Value() * indiv
					inv.ValuePerUnit *= 1 - indiv
					j.monetary(k.Category(), "PR Attack - Scandal", -loss, inv.Value())
				}
			}
		}
		if s.random() < layoffChance && st.SecondJobAvailable && st.WorkCount >= secondJobUnlockWorkCount {
			st.SecondJobAvailable = false
			j.info(CategoryEvent, layoffNotice)
		}
		return len(j.entries) > 0
	})
	if changed {
		s.log.Info("event tick applied", "portfolio", s.state.TotalPortfolioValue, "second_job", s.state.SecondJobAvailable)
	}
	s.instrument.TickCompleted(TickEvents, changed)
	return changed
}

// shieldFactor is the share of a scandal that gets through PR protection, in [0,1].
func shieldFactor(protection float64) float64 {
	f := 1 - protection
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
