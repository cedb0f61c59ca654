package mind

import (
	"strings"
	"sync"
)

type exchange struct {
	user string
	bot  string
}

// ContextStore keeps a bounded rolling conversation window per channel.
// When context is disabled in the persona settings it neither stores
// nor renders anything.
type ContextStore struct {
	persona *Persona
	mu      sync.Mutex
	windows map[string][]exchange
}

func NewContextStore(p *Persona) *ContextStore {
	return &ContextStore{
		persona: p,
		windows: make(map[string][]exchange),
	}
}

// Append records one user/bot exchange for a channel, evicting the
// oldest entries beyond the configured window length.
func (c *ContextStore) Append(channelID, userText, botText string) {
	s := c.persona.Snapshot()
	if !s.ContextEnabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	w := append(c.windows[channelID], exchange{user: userText, bot: botText})
	if len(w) > s.ContextLength {
		w = w[len(w)-s.ContextLength:]
	}
	c.windows[channelID] = w
}

// Render returns the channel's history as Human/Assistant line pairs,
// with a trailing blank line, or "" when disabled or empty.
func (c *ContextStore) Render(channelID string) string {
	if !c.persona.Snapshot().ContextEnabled {
		return ""
	}

	c.mu.Lock()
	w := c.windows[channelID]
	c.mu.Unlock()
	if len(w) == 0 {
		return ""
	}

	var parts []string
	for _, e := range w {
		parts = append(parts, "Human: "+e.user, "Assistant: "+e.bot)
	}
	return strings.Join(parts, "\n") + "\n\n"
}

// ClearChannel drops one channel's window.
func (c *ContextStore) ClearChannel(channelID string) {
	c.mu.Lock()
	delete(c.windows, channelID)
	c.mu.Unlock()
}

// Clear drops every channel's window.
func (c *ContextStore) Clear() {
	c.mu.Lock()
	c.windows = make(map[string][]exchange)
	c.mu.Unlock()
}
