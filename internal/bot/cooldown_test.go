package bot

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestCooldownGate_AllowsUpToLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewCooldownGate(clock)

	for i := 0; i < 3; i++ {
		ok, _ := g.Allow("user-1", "list_stations")
		assert.True(t, ok, "call %d should be allowed", i+1)
	}

	ok, retryAfter := g.Allow("user-1", "list_stations")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, 30*time.Second)
}

func TestCooldownGate_WindowSlides(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewCooldownGate(clock)

	for i := 0; i < 3; i++ {
		ok, _ := g.Allow("user-1", "list_stations")
		assert.True(t, ok)
	}
	ok, _ := g.Allow("user-1", "list_stations")
	assert.False(t, ok)

	clock.Advance(31 * time.Second)

	ok, _ = g.Allow("user-1", "list_stations")
	assert.True(t, ok)
}

func TestCooldownGate_PerUser(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewCooldownGate(clock)

	for i := 0; i < 3; i++ {
		ok, _ := g.Allow("user-1", "list_stations")
		assert.True(t, ok)
	}
	ok, _ := g.Allow("user-1", "list_stations")
	assert.False(t, ok)

	ok, _ = g.Allow("user-2", "list_stations")
	assert.True(t, ok)
}

func TestCooldownGate_PerCommand(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewCooldownGate(clock)

	for i := 0; i < 3; i++ {
		ok, _ := g.Allow("user-1", "list_stations")
		assert.True(t, ok)
	}
	ok, _ := g.Allow("user-1", "list_stations")
	assert.False(t, ok)

	// add_station has its own budget.
	ok, _ = g.Allow("user-1", "add_station")
	assert.True(t, ok)
}

func TestCooldownGate_UnknownCommandAlwaysAllowed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewCooldownGate(clock)

	for i := 0; i < 50; i++ {
		ok, _ := g.Allow("user-1", "station_report")
		assert.True(t, ok)
	}
}
