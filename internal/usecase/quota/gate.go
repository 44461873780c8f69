// Package quota enforces a per-repository daily review budget. Counters
// live in process memory only; a restart resets them. Each gate owns
// its own counter state so concurrent services and tests never share
// counts through package globals.
package quota

import (
	"fmt"
	"sync"
	"time"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int // -1 means unlimited
	Limit     int
}

// Gate counts reviews per (UTC day, repository) against a fixed limit.
// A limit of zero or less disables the gate entirely.
type Gate struct {
	limit int
	now   func() time.Time

	mu   sync.Mutex
	days map[string]map[string]int // day key -> repo -> count
}

// NewGate creates a gate with the given daily per-repo limit.
func NewGate(limit int) *Gate {
	return &Gate{
		limit: limit,
		now:   time.Now,
		days:  make(map[string]map[string]int),
	}
}

// SetClock overrides the time source (for testing).
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// CheckAndConsume atomically checks the repository's count for the
// current UTC day and increments it if capacity remains. Two callers
// racing for the last slot cannot both succeed. When the check refuses,
// the count is left unchanged.
func (g *Gate) CheckAndConsume(repository string) Decision {
	if g.limit <= 0 {
		return Decision{Allowed: true, Remaining: -1, Limit: 0}
	}

	day := dayKey(g.now().UTC())

	g.mu.Lock()
	defer g.mu.Unlock()

	g.evictStale(day)

	counts, ok := g.days[day]
	if !ok {
		counts = make(map[string]int)
		g.days[day] = counts
	}

	if counts[repository] >= g.limit {
		return Decision{Allowed: false, Remaining: 0, Limit: g.limit}
	}
	counts[repository]++
	return Decision{Allowed: true, Remaining: g.limit - counts[repository], Limit: g.limit}
}

// evictStale drops day buckets other than the current and prior UTC day
// so a long-lived server does not accumulate counters forever.
func (g *Gate) evictStale(current string) {
	prior := dayKey(g.now().UTC().AddDate(0, 0, -1))
	for day := range g.days {
		if day != current && day != prior {
			delete(g.days, day)
		}
	}
}

func dayKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}
