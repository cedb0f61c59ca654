package command

import (
	"chatgate/internal/ai"
	"chatgate/internal/config"
	"chatgate/internal/mind"

	"github.com/bwmarrin/discordgo"
)

type Command interface {
	Name() string
	Description() string
	Category() string
	UserPermissions() []int64
	Run(ctx interface{}) error
}

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Services bundles the bot's shared state for command handlers.
type Services struct {
	Engine   *mind.Engine
	Provider *ai.OllamaProvider
	Config   *config.Config
}

type SlashContext struct {
	Session  *discordgo.Session
	Event    *discordgo.InteractionCreate
	Services *Services
}
