package core

import (
	"fmt"
	"strings"

	"chatgate/internal/bot"
	"chatgate/internal/command"

	"github.com/bwmarrin/discordgo"
)

type BackendStatusCommand struct{}

func (c *BackendStatusCommand) Name() string             { return "backend-status" }
func (c *BackendStatusCommand) Description() string      { return "Check the AI backend connection" }
func (c *BackendStatusCommand) Category() string         { return "ℹ️ Information" }
func (c *BackendStatusCommand) UserPermissions() []int64 { return nil }

func (c *BackendStatusCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	s := context.Session
	e := context.Event

	if err := bot.RespondDeferredEphemeral(s, e); err != nil {
		return err
	}

	models, err := context.Services.Provider.Tags()
	if err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🔌 Backend Status",
			Color:       0xff0000,
			Description: fmt.Sprintf("❌ Cannot reach the AI backend at %s", context.Services.Config.OllamaBaseURL),
		})
	}

	configured := context.Services.Config.OllamaModel
	available := "none"
	if len(models) > 0 {
		available = strings.Join(models, ", ")
	}
	loaded := "❌ Not found"
	for _, m := range models {
		if m == configured {
			loaded = "✅ Available"
			break
		}
	}

	return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title: "🔌 Backend Status",
		Color: 0x00cc66,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Connection", Value: "✅ Connected", Inline: true},
			{Name: "Configured Model", Value: configured, Inline: true},
			{Name: "Model Status", Value: loaded, Inline: true},
			{Name: "Available Models", Value: available},
		},
	})
}

func init() {
	command.Register(&BackendStatusCommand{}, command.WithCommandLogger())
}
