package aigateway

import (
	"sync"
	"time"
)

// defaultCooldown is the minimum gap between two calls to the same provider.
const defaultCooldown = 5 * time.Second

// cooldownGate enforces a per-provider minimum interval between calls. The
// stamp is taken when the call starts, so a failed call still starts the
// cooldown. State is volatile; a restart clears all stamps.
type cooldownGate struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
	now      func() time.Time
}

func newCooldownGate(interval time.Duration, now func() time.Time) *cooldownGate {
	if interval <= 0 {
		interval = defaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &cooldownGate{
		last:     make(map[string]time.Time),
		interval: interval,
		now:      now,
	}
}

// allow reports whether the provider may be called now, and if so stamps the
// call. On refusal it returns the remaining wait.
func (g *cooldownGate) allow(provider string) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[provider]; ok {
		if elapsed := now.Sub(last); elapsed < g.interval {
			return g.interval - elapsed, false
		}
	}
	g.last[provider] = now
	return 0, true
}
