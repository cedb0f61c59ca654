package mind

import (
	"fmt"
	"log"
	"strings"
	"time"

	"chatgate/internal/ai"
	"chatgate/internal/policy"
)

// ApologyMessage is sent when the backend fails or returns nothing.
const ApologyMessage = "Sorry, I couldn't generate a response. Please try again."

// Event is one inbound message, already reduced to what admission needs.
type Event struct {
	GuildID     string // empty for DMs
	ChannelID   string
	UserID      string
	Content     string
	MentionsBot bool
	IsDM        bool
	RoleIDs     []string
	IsAdmin     bool
	BotUserID   string
}

// Decision is the outcome of the admission gates for one event.
type Decision struct {
	Engage     bool
	Autonomous bool // engaged without mention or DM; drives the auto-reply cooldown
	Policy     policy.Policy
	DropReason string
}

// Engine ties the policy store, persona, context windows, and auto-reply
// gate into the per-event decision, and drives response generation.
type Engine struct {
	policies *policy.Store
	persona  *Persona
	contexts *ContextStore
	gate     *AutoReplyGate
	limiter  *CallLimiter
	provider ai.Provider
	maxLen   int // chunk cap outside guild scope
}

func NewEngine(policies *policy.Store, persona *Persona, contexts *ContextStore,
	gate *AutoReplyGate, limiter *CallLimiter, provider ai.Provider, maxLen int) *Engine {
	if maxLen <= 0 {
		maxLen = 2000
	}
	return &Engine{
		policies: policies,
		persona:  persona,
		contexts: contexts,
		gate:     gate,
		limiter:  limiter,
		provider: provider,
		maxLen:   maxLen,
	}
}

func (e *Engine) Persona() *Persona       { return e.persona }
func (e *Engine) Contexts() *ContextStore { return e.contexts }
func (e *Engine) Policies() *policy.Store { return e.policies }

// Decide runs the guild policy gates and the engagement trigger. DMs
// skip the guild gates entirely.
func (e *Engine) Decide(ev Event, now time.Time) Decision {
	dec := Decision{Policy: policy.Default()}

	if ev.GuildID != "" {
		pol := e.policies.Get(ev.GuildID)
		dec.Policy = pol

		switch {
		case !pol.Enabled:
			dec.DropReason = "disabled"
			return dec
		case pol.AdminOnly && !ev.IsAdmin:
			dec.DropReason = "admin only"
			return dec
		case !pol.ChannelAllowed(ev.ChannelID):
			dec.DropReason = "channel restricted"
			return dec
		case !pol.RolesAllowed(ev.RoleIDs):
			dec.DropReason = "role restricted"
			return dec
		case !e.policies.CooldownAllowed(ev.GuildID, ev.UserID, pol.CooldownSeconds, now):
			dec.DropReason = "cooldown"
			return dec
		case pol.RequireMention && !ev.MentionsBot:
			dec.DropReason = "mention required"
			return dec
		}
	}

	switch {
	case ev.MentionsBot, ev.IsDM:
		dec.Engage = true
	case e.gate.ShouldEngage(ev.ChannelID, ev.Content, now):
		dec.Engage = true
		dec.Autonomous = true
	default:
		dec.DropReason = "not addressed"
	}
	return dec
}

// SendFunc dispatches one response chunk. The caller owns reply vs.
// plain-send fallback semantics.
type SendFunc func(chunk string) error

// Respond generates and dispatches the reply for an admitted event.
// The per-user cooldown is set before the backend call so a slow
// generation cannot admit the same user twice in one window. Context and
// the auto-reply cooldown are updated only after a successful send.
func (e *Engine) Respond(ev Event, dec Decision, send SendFunc) error {
	if !e.limiter.Allow() {
		log.Printf("[WARN] Generation rate limit hit, dropping event in channel %s", ev.ChannelID)
		return nil
	}

	if ev.GuildID != "" {
		if err := e.policies.TouchCooldown(ev.GuildID, ev.UserID, time.Now()); err != nil {
			log.Printf("[WARN] Failed to set cooldown for %s/%s: %v", ev.GuildID, ev.UserID, err)
		}
	}

	userText := StripMention(ev.Content, ev.BotUserID)
	prompt := e.persona.RenderSystemPrompt() + "\n\n" +
		e.contexts.Render(ev.ChannelID) +
		"Human: " + userText + "\n\nAssistant:"

	st := e.persona.Snapshot()
	reply, err := e.provider.Generate(prompt, st.Temperature)
	if err != nil || reply == "" {
		if err != nil {
			log.Printf("[ERR] Generation failed: %v", err)
		}
		if sendErr := send(ApologyMessage); sendErr != nil {
			return fmt.Errorf("apology send failed: %w", sendErr)
		}
		return nil
	}

	maxLen := e.maxLen
	if st.MaxResponseLength > 0 {
		maxLen = st.MaxResponseLength
	}
	if ev.GuildID != "" && dec.Policy.MaxMessageLength > 0 {
		maxLen = dec.Policy.MaxMessageLength
	}
	for _, chunk := range SplitChunks(reply, maxLen) {
		if err := send(chunk); err != nil {
			return fmt.Errorf("chunk send failed: %w", err)
		}
	}

	e.contexts.Append(ev.ChannelID, userText, reply)
	if dec.Autonomous {
		e.gate.Record(ev.ChannelID, time.Now())
	}
	return nil
}

// StripMention removes the bot's mention tokens from a message.
func StripMention(content, botUserID string) string {
	if botUserID == "" {
		return strings.TrimSpace(content)
	}
	content = strings.ReplaceAll(content, "<@"+botUserID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botUserID+">", "")
	return strings.TrimSpace(content)
}

// SplitChunks hard-splits text into pieces of at most limit runes.
func SplitChunks(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	r := []rune(text)
	var chunks []string
	for len(r) > limit {
		chunks = append(chunks, string(r[:limit]))
		r = r[limit:]
	}
	if len(r) > 0 {
		chunks = append(chunks, string(r))
	}
	return chunks
}
