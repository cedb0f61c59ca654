package core

import (
	"fmt"

	"chatgate/internal/bot"
	"chatgate/internal/command"
)

type PingCommand struct{}

func (c *PingCommand) Name() string             { return "ping" }
func (c *PingCommand) Description() string      { return "Check that the bot is alive" }
func (c *PingCommand) Category() string         { return "ℹ️ Information" }
func (c *PingCommand) UserPermissions() []int64 { return nil }

func (c *PingCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	latency := context.Session.HeartbeatLatency().Milliseconds()
	return bot.RespondEphemeral(context.Session, context.Event,
		fmt.Sprintf("🏓 Pong! Gateway latency: %dms", latency))
}

func init() {
	command.Register(&PingCommand{}, command.WithCommandLogger())
}
