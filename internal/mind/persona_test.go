package mind

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBasePrompt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "base.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewPersonaLoadsBasePrompt(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "You are Testy."))
	assert.Equal(t, "You are Testy.", p.Snapshot().SystemPrompt)
}

func TestNewPersonaMissingFileFallsBack(t *testing.T) {
	p := NewPersona(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Equal(t, FallbackBasePrompt, p.Snapshot().SystemPrompt)
}

func TestDefaults(t *testing.T) {
	s := NewPersona(writeBasePrompt(t, "base")).Snapshot()
	assert.Equal(t, "moderate", s.SafetyLevel)
	assert.Equal(t, 0.7, s.Temperature)
	assert.Equal(t, 10, s.ContextLength)
	assert.True(t, s.ContextEnabled)
	assert.True(t, s.AutoReplyEnabled)
	assert.Equal(t, 1.0, s.AutoReplyProbability)
	assert.Equal(t, "casual", s.Traits.Formality)
	assert.Equal(t, "light", s.Traits.Humor)
}

func TestApplyMergesTraits(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "base"))

	humor := "heavy"
	p.Apply(Update{Traits: &TraitsUpdate{Humor: &humor}})

	s := p.Snapshot()
	assert.Equal(t, "heavy", s.Traits.Humor)
	// other traits keep their defaults
	assert.Equal(t, "casual", s.Traits.Formality)
	assert.Equal(t, "high", s.Traits.Helpfulness)
}

func TestApplyNilFieldsKeepValues(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "base"))

	temp := 1.2
	p.Apply(Update{Temperature: &temp})

	s := p.Snapshot()
	assert.Equal(t, 1.2, s.Temperature)
	assert.Equal(t, "base", s.SystemPrompt)
	assert.Equal(t, "moderate", s.SafetyLevel)
}

func TestClearDisablesAutoReply(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "base"))
	p.Clear()

	s := p.Snapshot()
	assert.False(t, s.AutoReplyEnabled)
	assert.Equal(t, 0.0, s.AutoReplyProbability)
	assert.Equal(t, "You are an AI assistant.", s.SystemPrompt)
	assert.Equal(t, "none", s.Traits.Humor)
}

func TestClearThenPromptRendersNewPrompt(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "base"))
	p.Clear()

	prompt := "You are a pirate."
	p.Apply(Update{SystemPrompt: &prompt})

	assert.True(t, strings.HasPrefix(p.RenderSystemPrompt(), "You are a pirate."))
}

func TestResetRestoresDefaults(t *testing.T) {
	path := writeBasePrompt(t, "seed prompt")
	p := NewPersona(path)

	prompt := "changed"
	level := "strict"
	p.Apply(Update{SystemPrompt: &prompt, SafetyLevel: &level})
	p.Reset()

	s := p.Snapshot()
	assert.Equal(t, "seed prompt", s.SystemPrompt)
	assert.Equal(t, "moderate", s.SafetyLevel)
}

func TestReloadBaseKeepsOtherSettings(t *testing.T) {
	path := writeBasePrompt(t, "v1")
	p := NewPersona(path)

	temp := 1.5
	p.Apply(Update{Temperature: &temp})

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	p.ReloadBase()

	s := p.Snapshot()
	assert.Equal(t, "v2", s.SystemPrompt)
	assert.Equal(t, 1.5, s.Temperature)
}

func TestRenderSystemPrompt(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "Base prompt."))
	out := p.RenderSystemPrompt()

	assert.True(t, strings.HasPrefix(out, "Base prompt.\n\n"))
	assert.Contains(t, out, "Personality: ")
	assert.Contains(t, out, "Respond in a casual, conversational tone.")
	assert.Contains(t, out, "Occasionally use light humor when appropriate.")
	assert.Contains(t, out, "Safety Guidelines: Avoid harmful or inappropriate content.")
}

func TestRenderSystemPromptUnknownTraitsOmitClauses(t *testing.T) {
	p := NewPersona(writeBasePrompt(t, "Base."))

	formality := "robotic"
	humor := "none"
	helpfulness := "low"
	creativity := "low"
	p.Apply(Update{Traits: &TraitsUpdate{
		Formality:   &formality,
		Humor:       &humor,
		Helpfulness: &helpfulness,
		Creativity:  &creativity,
	}})

	out := p.RenderSystemPrompt()
	assert.NotContains(t, out, "Personality: ")
	assert.Contains(t, out, "Safety Guidelines: ")
}
