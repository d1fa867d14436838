package usecase

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/prompt2insight/backend/internal/domain"
)

// QuotaConfig holds per-source request budgets. A zero daily limit means the
// source is unmetered; a zero rate disables the per-second limiter.
type QuotaConfig struct {
	DailyLimits    map[domain.SourceID]int
	RatesPerSecond map[domain.SourceID]float64
	Burst          int
}

// DailyQuotaGuard enforces per-source daily budgets and request rates. The
// pipeline queries it before every source invocation; a denial is handled
// like a quota-exceeded transport failure, so the guard never blocks.
type DailyQuotaGuard struct {
	mutex    sync.Mutex
	limits   map[domain.SourceID]int
	counts   map[domain.SourceID]int
	limiters map[domain.SourceID]*rate.Limiter
	day      time.Time
	now      func() time.Time
}

// NewDailyQuotaGuard creates a quota guard from the configured budgets.
func NewDailyQuotaGuard(config QuotaConfig) *DailyQuotaGuard {
	burst := config.Burst
	if burst <= 0 {
		burst = 5
	}

	limiters := make(map[domain.SourceID]*rate.Limiter)
	for source, perSecond := range config.RatesPerSecond {
		if perSecond > 0 {
			limiters[source] = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}

	guard := &DailyQuotaGuard{
		limits:   make(map[domain.SourceID]int),
		counts:   make(map[domain.SourceID]int),
		limiters: limiters,
		now:      time.Now,
	}
	for source, limit := range config.DailyLimits {
		guard.limits[source] = limit
	}
	guard.day = truncateToDay(guard.now())
	return guard
}

// Allow reports whether one more request to the source fits the budget and,
// if so, consumes it.
func (g *DailyQuotaGuard) Allow(source domain.SourceID) bool {
	if limiter, ok := g.limiters[source]; ok && !limiter.Allow() {
		return false
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	today := truncateToDay(g.now())
	if today.After(g.day) {
		g.counts = make(map[domain.SourceID]int)
		g.day = today
	}

	limit, metered := g.limits[source]
	if !metered || limit <= 0 {
		return true
	}
	if g.counts[source] >= limit {
		return false
	}
	g.counts[source]++
	return true
}

// Remaining returns how many requests the source has left today, or -1 for
// an unmetered source.
func (g *DailyQuotaGuard) Remaining(source domain.SourceID) int {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	limit, metered := g.limits[source]
	if !metered || limit <= 0 {
		return -1
	}

	remaining := limit - g.counts[source]
	if remaining < 0 {
		return 0
	}
	return remaining
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
