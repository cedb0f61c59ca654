// Package discord wires the gateway session to the decision engine and
// the slash command registry.
package discord

import (
	"fmt"
	"log"
	"sync"
	"time"

	"chatgate/internal/command"
	"chatgate/internal/config"
	"chatgate/internal/mind"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	session  *discordgo.Session
	services *command.Services

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-channel dispatch order
}

func New(cfg *config.Config, services *command.Services) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session:  session,
		services: services,
		locks:    map[string]*sync.Mutex{},
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return nil
}

func (b *Bot) Shutdown() {
	if err := b.session.Close(); err != nil {
		log.Printf("[ERR] Session close failed: %v", err)
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] Logged in as %s#%s, serving %d guilds",
		r.User.Username, r.User.Discriminator, len(r.Guilds))
}

// onGuildCreate registers the slash commands per guild so changes show
// up without the global propagation delay.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	var defs []*discordgo.ApplicationCommand
	for _, cmd := range command.All() {
		if sp, ok := cmd.(command.SlashProvider); ok {
			defs = append(defs, sp.SlashDefinition())
		}
	}
	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, g.ID, defs); err != nil {
		log.Printf("[ERR] Slash registration failed for guild %s: %v", g.ID, err)
		return
	}
	log.Printf("[INFO] Registered %d slash commands in guild %s (%s)", len(defs), g.ID, g.Name)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		log.Printf("[WARN] Unknown slash command: %s", name)
		return
	}
	ctx := &command.SlashContext{Session: s, Event: i, Services: b.services}
	if err := cmd.Run(ctx); err != nil {
		log.Printf("[ERR] Command /%s failed: %v", name, err)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	ev := b.buildEvent(s, m)
	dec := b.services.Engine.Decide(ev, time.Now())
	if !dec.Engage {
		if dec.DropReason != "" && dec.DropReason != "not addressed" {
			log.Printf("[INFO] Dropped message from %s in %s: %s", ev.UserID, ev.ChannelID, dec.DropReason)
		}
		return
	}

	log.Printf("[CHAT] %s in %s: %s", m.Author.Username, ev.ChannelID, preview(m.Content, 80))
	go b.respond(s, m, ev, dec)
}

func preview(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

func (b *Bot) buildEvent(s *discordgo.Session, m *discordgo.MessageCreate) mind.Event {
	botID := s.State.User.ID

	mentions := false
	for _, u := range m.Mentions {
		if u.ID == botID {
			mentions = true
			break
		}
	}

	var roleIDs []string
	if m.Member != nil {
		roleIDs = m.Member.Roles
	}

	isAdmin := false
	if m.GuildID != "" {
		perms, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			log.Printf("[WARN] Permission lookup failed for %s: %v", m.Author.ID, err)
		} else {
			isAdmin = perms&discordgo.PermissionAdministrator != 0
		}
	}

	return mind.Event{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		UserID:      m.Author.ID,
		Content:     m.Content,
		MentionsBot: mentions,
		IsDM:        m.GuildID == "",
		RoleIDs:     roleIDs,
		IsAdmin:     isAdmin,
		BotUserID:   botID,
	}
}

// respond runs generation off the gateway goroutine. A per-channel lock
// keeps replies in the same channel in arrival order.
func (b *Bot) respond(s *discordgo.Session, m *discordgo.MessageCreate, ev mind.Event, dec mind.Decision) {
	lock := b.channelLock(ev.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	stopTyping := b.keepTyping(s, ev.ChannelID)
	defer stopTyping()

	send := func(chunk string) error {
		if _, err := s.ChannelMessageSendReply(ev.ChannelID, chunk, m.Reference()); err == nil {
			return nil
		}
		_, err := s.ChannelMessageSend(ev.ChannelID, chunk)
		return err
	}

	if err := b.services.Engine.Respond(ev, dec, send); err != nil {
		log.Printf("[ERR] Response dispatch failed in %s: %v", ev.ChannelID, err)
	}
}

func (b *Bot) channelLock(channelID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[channelID] = lock
	}
	return lock
}

// keepTyping shows the typing indicator until the returned stop func is
// called. Discord drops the indicator after ~10s, so it is refreshed.
func (b *Bot) keepTyping(s *discordgo.Session, channelID string) func() {
	done := make(chan struct{})
	go func() {
		_ = s.ChannelTyping(channelID)
		ticker := time.NewTicker(8 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = s.ChannelTyping(channelID)
			}
		}
	}()
	return func() { close(done) }
}
