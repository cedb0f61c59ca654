package mind

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// AutoReplyGate decides whether the bot speaks up without being
// mentioned: feature toggle, per-channel cooldown, trigger words, then
// a probability draw.
type AutoReplyGate struct {
	persona *Persona
	mu      sync.Mutex
	last    map[string]time.Time
	draw    func() float64
}

func NewAutoReplyGate(p *Persona) *AutoReplyGate {
	return &AutoReplyGate{
		persona: p,
		last:    make(map[string]time.Time),
		draw:    rand.Float64,
	}
}

// ShouldEngage is evaluated only for messages that are neither a direct
// mention nor a DM.
func (g *AutoReplyGate) ShouldEngage(channelID, content string, now time.Time) bool {
	s := g.persona.Snapshot()
	if !s.AutoReplyEnabled {
		return false
	}

	g.mu.Lock()
	last, seen := g.last[channelID]
	g.mu.Unlock()
	if seen && now.Sub(last) < time.Duration(s.AutoReplyCooldownSeconds)*time.Second {
		return false
	}

	if len(s.AutoReplyTriggerWords) > 0 {
		lower := strings.ToLower(content)
		hit := false
		for _, word := range s.AutoReplyTriggerWords {
			if strings.Contains(lower, strings.ToLower(word)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	// draw is in [0,1), so probability 1.0 always passes and 0.0 never does.
	return g.draw() < s.AutoReplyProbability
}

// Record stores the engagement time for the channel's cooldown. Call it
// only after an autonomous reply was actually dispatched.
func (g *AutoReplyGate) Record(channelID string, now time.Time) {
	g.mu.Lock()
	g.last[channelID] = now
	g.mu.Unlock()
}
