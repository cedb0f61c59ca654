package mind

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatgate/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeProvider) Generate(prompt string, temperature float64) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

type testEngine struct {
	*Engine
	store    *policy.Store
	provider *fakeProvider
	gate     *AutoReplyGate
}

func newTestEngine(t *testing.T, reply string, genErr error) *testEngine {
	t.Helper()
	store, err := policy.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p := testPersona(t)
	contexts := NewContextStore(p)
	gate := gateWithDraw(t, p, func() float64 { return 0 })
	provider := &fakeProvider{reply: reply, err: genErr}

	return &testEngine{
		Engine:   NewEngine(store, p, contexts, gate, NewCallLimiter(1000, 1000), provider, 2000),
		store:    store,
		provider: provider,
		gate:     gate,
	}
}

func guildEvent() Event {
	return Event{
		GuildID:     "g1",
		ChannelID:   "c1",
		UserID:      "u1",
		Content:     "<@bot> hello there",
		MentionsBot: true,
		BotUserID:   "bot",
	}
}

func TestDecideMentionEngages(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	dec := e.Decide(guildEvent(), time.Now())
	assert.True(t, dec.Engage)
	assert.False(t, dec.Autonomous)
}

func TestDecideDisabledPolicyDrops(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	enabled := false
	require.NoError(t, e.store.Update("g1", policy.Update{Enabled: &enabled}))

	dec := e.Decide(guildEvent(), time.Now())
	assert.False(t, dec.Engage)
	assert.Equal(t, "disabled", dec.DropReason)
}

func TestDecideAdminOnly(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	adminOnly := true
	require.NoError(t, e.store.Update("g1", policy.Update{AdminOnly: &adminOnly}))

	dec := e.Decide(guildEvent(), time.Now())
	assert.False(t, dec.Engage)
	assert.Equal(t, "admin only", dec.DropReason)

	ev := guildEvent()
	ev.IsAdmin = true
	assert.True(t, e.Decide(ev, time.Now()).Engage)
}

func TestDecideChannelRestricted(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	channels := []string{"other"}
	require.NoError(t, e.store.Update("g1", policy.Update{AllowedChannels: &channels}))

	dec := e.Decide(guildEvent(), time.Now())
	assert.False(t, dec.Engage)
	assert.Equal(t, "channel restricted", dec.DropReason)
}

func TestDecideRoleRestricted(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	roles := []string{"r1"}
	require.NoError(t, e.store.Update("g1", policy.Update{BlockedRoles: &roles}))

	ev := guildEvent()
	ev.RoleIDs = []string{"r1", "r2"}
	dec := e.Decide(ev, time.Now())
	assert.False(t, dec.Engage)
	assert.Equal(t, "role restricted", dec.DropReason)
}

func TestDecideCooldownBlocks(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	now := time.Now()
	require.NoError(t, e.store.TouchCooldown("g1", "u1", now))

	dec := e.Decide(guildEvent(), now.Add(time.Second))
	assert.False(t, dec.Engage)
	assert.Equal(t, "cooldown", dec.DropReason)

	assert.True(t, e.Decide(guildEvent(), now.Add(6*time.Second)).Engage)
}

func TestDecideRequireMention(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	mention := true
	require.NoError(t, e.store.Update("g1", policy.Update{RequireMention: &mention}))

	ev := guildEvent()
	ev.MentionsBot = false
	dec := e.Decide(ev, time.Now())
	assert.False(t, dec.Engage)
	assert.Equal(t, "mention required", dec.DropReason)
}

func TestDecideDMSkipsGuildGates(t *testing.T) {
	e := newTestEngine(t, "hi", nil)

	ev := Event{ChannelID: "dm1", UserID: "u1", Content: "hello", IsDM: true}
	dec := e.Decide(ev, time.Now())
	assert.True(t, dec.Engage)
	assert.False(t, dec.Autonomous)
}

func TestDecideAutonomousEngagement(t *testing.T) {
	e := newTestEngine(t, "hi", nil)

	ev := guildEvent()
	ev.MentionsBot = false
	dec := e.Decide(ev, time.Now())
	assert.True(t, dec.Engage)
	assert.True(t, dec.Autonomous)
}

func TestDecideNotAddressed(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	enabled := false
	e.Persona().Apply(Update{AutoReplyEnabled: &enabled})

	ev := guildEvent()
	ev.MentionsBot = false
	dec := e.Decide(ev, time.Now())
	assert.False(t, dec.Engage)
	assert.Equal(t, "not addressed", dec.DropReason)
}

func TestRespondSendsReplyAndRecordsContext(t *testing.T) {
	e := newTestEngine(t, "hello back", nil)
	ev := guildEvent()
	dec := e.Decide(ev, time.Now())
	require.True(t, dec.Engage)

	var sent []string
	err := e.Respond(ev, dec, func(chunk string) error {
		sent = append(sent, chunk)
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, []string{"hello back"}, sent)
	assert.Contains(t, e.Contexts().Render("c1"), "Human: hello there")
	assert.Contains(t, e.Contexts().Render("c1"), "Assistant: hello back")

	// the per-user cooldown was set before the reply went out
	assert.False(t, e.store.CooldownAllowed("g1", "u1", 5, time.Now()))
}

func TestRespondChunksLongReply(t *testing.T) {
	long := strings.Repeat("x", 4500)
	e := newTestEngine(t, long, nil)
	ev := guildEvent()
	dec := e.Decide(ev, time.Now())

	var sent []string
	require.NoError(t, e.Respond(ev, dec, func(chunk string) error {
		sent = append(sent, chunk)
		return nil
	}))

	require.Len(t, sent, 3)
	assert.Len(t, sent[0], 2000)
	assert.Len(t, sent[1], 2000)
	assert.Len(t, sent[2], 500)
}

func TestRespondApologizesOnBackendError(t *testing.T) {
	e := newTestEngine(t, "", errors.New("connection refused"))
	ev := guildEvent()
	dec := e.Decide(ev, time.Now())

	var sent []string
	require.NoError(t, e.Respond(ev, dec, func(chunk string) error {
		sent = append(sent, chunk)
		return nil
	}))

	assert.Equal(t, []string{ApologyMessage}, sent)
	// a failed generation leaves no context behind
	assert.Equal(t, "", e.Contexts().Render("c1"))
}

func TestRespondApologizesOnEmptyReply(t *testing.T) {
	e := newTestEngine(t, "", nil)
	ev := guildEvent()
	dec := e.Decide(ev, time.Now())

	var sent []string
	require.NoError(t, e.Respond(ev, dec, func(chunk string) error {
		sent = append(sent, chunk)
		return nil
	}))
	assert.Equal(t, []string{ApologyMessage}, sent)
}

func TestRespondLimiterDropsSilently(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	e.limiter = NewCallLimiter(0, 0)
	ev := guildEvent()
	dec := e.Decide(ev, time.Now())

	called := false
	require.NoError(t, e.Respond(ev, dec, func(string) error {
		called = true
		return nil
	}))
	assert.False(t, called)
	assert.Equal(t, 0, e.provider.calls)
}

func TestRespondAutonomousRecordsGateCooldown(t *testing.T) {
	e := newTestEngine(t, "hi", nil)
	ev := guildEvent()
	ev.MentionsBot = false
	dec := e.Decide(ev, time.Now())
	require.True(t, dec.Autonomous)

	require.NoError(t, e.Respond(ev, dec, func(string) error { return nil }))

	// the channel is now inside the auto-reply cooldown window
	assert.False(t, e.gate.ShouldEngage("c1", "another message", time.Now()))
}

func TestRespondPromptContainsPersonaAndHistory(t *testing.T) {
	e := newTestEngine(t, "first", nil)
	ev := guildEvent()
	dec := e.Decide(ev, time.Now())
	require.NoError(t, e.Respond(ev, dec, func(string) error { return nil }))

	ev2 := guildEvent()
	ev2.Content = "<@bot> and again"
	dec2 := e.Decide(ev2, time.Now().Add(10*time.Second))
	require.True(t, dec2.Engage)
	require.NoError(t, e.Respond(ev2, dec2, func(string) error { return nil }))

	prompt := e.provider.lastPrompt
	assert.Contains(t, prompt, "Human: hello there")
	assert.Contains(t, prompt, "Assistant: first")
	assert.True(t, strings.HasSuffix(prompt, "Human: and again\n\nAssistant:"))
	// mention tokens never reach the backend
	assert.NotContains(t, prompt, "<@bot>")
}

func TestStripMention(t *testing.T) {
	assert.Equal(t, "hello", StripMention("<@123> hello", "123"))
	assert.Equal(t, "hello", StripMention("<@!123> hello", "123"))
	assert.Equal(t, "hello <@456>", StripMention("hello <@456>", "123"))
	assert.Equal(t, "hello", StripMention("  hello  ", ""))
}

func TestSplitChunks(t *testing.T) {
	assert.Equal(t, []string{"abc"}, SplitChunks("abc", 10))
	assert.Equal(t, []string{"ab", "cd", "e"}, SplitChunks("abcde", 2))
	assert.Empty(t, SplitChunks("", 10))

	// runes are never split mid-character
	chunks := SplitChunks(strings.Repeat("é", 5), 2)
	assert.Equal(t, []string{"éé", "éé", "é"}, chunks)
}
