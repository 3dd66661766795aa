package bot

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// cooldownRule allows Calls invocations per user within Window.
type cooldownRule struct {
	Calls  int
	Window time.Duration
}

var cooldownRules = map[string]cooldownRule{
	"list_stations": {Calls: 3, Window: 30 * time.Second},
	"add_station":   {Calls: 4, Window: 45 * time.Second},
}

// CooldownGate enforces per-user per-command rate limits in the dispatch
// layer, keeping chatty users from hammering the USGS service.
type CooldownGate struct {
	clock clockwork.Clock

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewCooldownGate(clock clockwork.Clock) *CooldownGate {
	return &CooldownGate{
		clock: clock,
		hits:  make(map[string][]time.Time),
	}
}

// Allow reports whether the user may run the command now. When denied, the
// second return value is how long until the next attempt would be allowed.
// Commands without a cooldown rule are always allowed.
func (g *CooldownGate) Allow(userID, command string) (bool, time.Duration) {
	rule, ok := cooldownRules[command]
	if !ok {
		return true, 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	key := userID + "|" + command

	recent := g.hits[key][:0]
	for _, t := range g.hits[key] {
		if now.Sub(t) < rule.Window {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rule.Calls {
		retryAfter := rule.Window - now.Sub(recent[0])
		g.hits[key] = recent
		return false, retryAfter
	}

	g.hits[key] = append(recent, now)
	return true, 0
}
