package command

import (
	"log"

	"chatgate/internal/bot"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	return w.wrap(ctx)
}

func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok && v.Event.GuildID == "" {
					return bot.RespondEphemeral(v.Session, v.Event,
						"You must be in a guild to use this command.")
				}
				return cmd.Run(ctx)
			},
		}
	}
}

func WithUserPermissionCheck() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				v, ok := ctx.(*SlashContext)
				if !ok || len(cmd.UserPermissions()) == 0 {
					return cmd.Run(ctx)
				}
				if v.Event.Member == nil {
					return cmd.Run(ctx)
				}
				for _, p := range cmd.UserPermissions() {
					if v.Event.Member.Permissions&p == 0 {
						return bot.RespondEphemeral(v.Session, v.Event,
							"You don't have permission to use this command.")
					}
				}
				return cmd.Run(ctx)
			},
		}
	}
}

func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok {
					user := "unknown"
					if v.Event.Member != nil && v.Event.Member.User != nil {
						user = v.Event.Member.User.Username
					} else if v.Event.User != nil {
						user = v.Event.User.Username
					}
					log.Printf("[CMD] /%s by %s in guild %s", cmd.Name(), user, v.Event.GuildID)
				}
				return cmd.Run(ctx)
			},
		}
	}
}
