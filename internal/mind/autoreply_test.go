package mind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func gateWithDraw(t *testing.T, p *Persona, draw func() float64) *AutoReplyGate {
	t.Helper()
	g := NewAutoReplyGate(p)
	g.draw = draw
	return g
}

func TestAutoReplyDisabled(t *testing.T) {
	p := testPersona(t)
	enabled := false
	p.Apply(Update{AutoReplyEnabled: &enabled})
	g := gateWithDraw(t, p, func() float64 { return 0 })

	assert.False(t, g.ShouldEngage("ch", "anything", time.Now()))
}

func TestAutoReplyProbabilityBounds(t *testing.T) {
	p := testPersona(t)
	g := NewAutoReplyGate(p)
	now := time.Now()

	zero := 0.0
	p.Apply(Update{AutoReplyProbability: &zero})
	for i := 0; i < 1000; i++ {
		assert.False(t, g.ShouldEngage("ch", "msg", now))
	}

	one := 1.0
	p.Apply(Update{AutoReplyProbability: &one})
	for i := 0; i < 1000; i++ {
		assert.True(t, g.ShouldEngage("ch", "msg", now))
	}
}

func TestAutoReplyDrawAgainstProbability(t *testing.T) {
	p := testPersona(t)
	prob := 0.5
	p.Apply(Update{AutoReplyProbability: &prob})
	now := time.Now()

	g := gateWithDraw(t, p, func() float64 { return 0.49 })
	assert.True(t, g.ShouldEngage("ch", "msg", now))

	g = gateWithDraw(t, p, func() float64 { return 0.5 })
	assert.False(t, g.ShouldEngage("ch", "msg", now))
}

func TestAutoReplyChannelCooldown(t *testing.T) {
	p := testPersona(t)
	seconds := 10
	p.Apply(Update{AutoReplyCooldownSeconds: &seconds})
	g := gateWithDraw(t, p, func() float64 { return 0 })
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.ShouldEngage("ch", "msg", base))
	g.Record("ch", base)

	assert.False(t, g.ShouldEngage("ch", "msg", base.Add(5*time.Second)))
	assert.True(t, g.ShouldEngage("ch", "msg", base.Add(10*time.Second)))

	// other channels are unaffected
	assert.True(t, g.ShouldEngage("other", "msg", base.Add(time.Second)))
}

func TestAutoReplyTriggerWords(t *testing.T) {
	p := testPersona(t)
	words := []string{"bot", "Help"}
	p.Apply(Update{AutoReplyTriggerWords: &words})
	g := gateWithDraw(t, p, func() float64 { return 0 })
	now := time.Now()

	assert.True(t, g.ShouldEngage("ch", "hey BOT what's up", now))
	assert.True(t, g.ShouldEngage("c2", "i need help here", now))
	assert.False(t, g.ShouldEngage("c3", "nothing relevant", now))
}

func TestAutoReplyNoTriggerWordsMatchesAll(t *testing.T) {
	p := testPersona(t)
	g := gateWithDraw(t, p, func() float64 { return 0 })

	assert.True(t, g.ShouldEngage("ch", "any message at all", time.Now()))
}
