package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name string
	ran  int
	err  error
}

func (c *stubCommand) Name() string             { return c.name }
func (c *stubCommand) Description() string      { return "stub" }
func (c *stubCommand) Category() string         { return "test" }
func (c *stubCommand) UserPermissions() []int64 { return nil }
func (c *stubCommand) Run(ctx interface{}) error {
	c.ran++
	return c.err
}

func TestRegisterAndGet(t *testing.T) {
	stub := &stubCommand{name: "stub-get"}
	Register(stub)

	cmd, ok := Get("stub-get")
	require.True(t, ok)
	assert.Equal(t, "stub-get", cmd.Name())

	_, ok = Get("missing")
	assert.False(t, ok)
}

func TestRegisterWrapsOutermostFirst(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(cmd Command) Command {
			return &wrappedCommand{
				Command: cmd,
				wrap: func(ctx interface{}) error {
					order = append(order, tag)
					return cmd.Run(ctx)
				},
			}
		}
	}

	stub := &stubCommand{name: "stub-order"}
	Register(stub, mw("outer"), mw("inner"))

	cmd, ok := Get("stub-order")
	require.True(t, ok)
	require.NoError(t, cmd.Run(nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, stub.ran)
}

func TestWrappedCommandKeepsMetadata(t *testing.T) {
	stub := &stubCommand{name: "stub-meta", err: errors.New("boom")}
	Register(stub, WithCommandLogger())

	cmd, ok := Get("stub-meta")
	require.True(t, ok)
	assert.Equal(t, "stub-meta", cmd.Name())
	assert.Equal(t, "stub", cmd.Description())
	assert.Error(t, cmd.Run(nil))
}
