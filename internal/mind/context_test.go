package mind

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPersona(t *testing.T) *Persona {
	t.Helper()
	return NewPersona(filepath.Join(t.TempDir(), "missing.txt"))
}

func TestContextAppendAndRender(t *testing.T) {
	c := NewContextStore(testPersona(t))

	c.Append("ch", "hi", "hello")
	c.Append("ch", "how are you", "fine")

	assert.Equal(t,
		"Human: hi\nAssistant: hello\nHuman: how are you\nAssistant: fine\n\n",
		c.Render("ch"))
}

func TestContextEmptyRendersNothing(t *testing.T) {
	c := NewContextStore(testPersona(t))
	assert.Equal(t, "", c.Render("ch"))
}

func TestContextEvictsOldest(t *testing.T) {
	p := testPersona(t)
	length := 2
	p.Apply(Update{ContextLength: &length})
	c := NewContextStore(p)

	c.Append("ch", "a", "1")
	c.Append("ch", "b", "2")
	c.Append("ch", "c", "3")

	out := c.Render("ch")
	assert.NotContains(t, out, "Human: a")
	assert.Contains(t, out, "Human: b")
	assert.Contains(t, out, "Human: c")
}

func TestContextDisabledStoresNothing(t *testing.T) {
	p := testPersona(t)
	enabled := false
	p.Apply(Update{ContextEnabled: &enabled})
	c := NewContextStore(p)

	c.Append("ch", "hi", "hello")
	assert.Equal(t, "", c.Render("ch"))

	// history stored while enabled is hidden while disabled
	on := true
	p.Apply(Update{ContextEnabled: &on})
	c.Append("ch", "hi", "hello")
	p.Apply(Update{ContextEnabled: &enabled})
	assert.Equal(t, "", c.Render("ch"))
}

func TestContextChannelsAreIndependent(t *testing.T) {
	c := NewContextStore(testPersona(t))

	c.Append("a", "hi", "hello")
	c.Append("b", "yo", "hey")

	assert.Contains(t, c.Render("a"), "Human: hi")
	assert.NotContains(t, c.Render("a"), "Human: yo")
}

func TestContextClearChannel(t *testing.T) {
	c := NewContextStore(testPersona(t))

	c.Append("a", "hi", "hello")
	c.Append("b", "yo", "hey")
	c.ClearChannel("a")

	assert.Equal(t, "", c.Render("a"))
	assert.Contains(t, c.Render("b"), "Human: yo")
}

func TestContextClearAll(t *testing.T) {
	c := NewContextStore(testPersona(t))

	c.Append("a", "hi", "hello")
	c.Append("b", "yo", "hey")
	c.Clear()

	assert.Equal(t, "", c.Render("a"))
	assert.Equal(t, "", c.Render("b"))
}
