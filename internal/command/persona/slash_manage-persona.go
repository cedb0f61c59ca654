package persona

import (
	"fmt"
	"strings"

	"chatgate/internal/bot"
	"chatgate/internal/command"
	"chatgate/internal/mind"

	"github.com/bwmarrin/discordgo"
)

type ManagePersonaCommand struct{}

func (c *ManagePersonaCommand) Name() string        { return "manage-persona" }
func (c *ManagePersonaCommand) Description() string { return "AI persona and safety settings" }
func (c *ManagePersonaCommand) Category() string    { return "⚙️ Settings" }
func (c *ManagePersonaCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func choices(values ...string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return out
}

func (c *ManagePersonaCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "view",
				Description: "Show the current persona settings",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "prompt",
				Description: "Set the system prompt",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "text",
						Description: "New system prompt",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "safety",
				Description: "Set the safety level",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "level",
						Description: "Safety level",
						Required:    true,
						Choices:     choices("strict", "moderate", "permissive"),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "formality",
				Description: "Set the formality trait",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "value",
						Description: "Formality",
						Required:    true,
						Choices:     choices("formal", "casual", "friendly"),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "humor",
				Description: "Set the humor trait",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "value",
						Description: "Humor level",
						Required:    true,
						Choices:     choices("none", "light", "moderate", "heavy"),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "helpfulness",
				Description: "Set the helpfulness trait",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "value",
						Description: "Helpfulness",
						Required:    true,
						Choices:     choices("low", "medium", "high"),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "creativity",
				Description: "Set the creativity trait",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "value",
						Description: "Creativity",
						Required:    true,
						Choices:     choices("low", "medium", "high"),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "temperature",
				Description: "Set the generation temperature",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionNumber,
						Name:        "value",
						Description: "Temperature between 0.0 and 2.0",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "max-length",
				Description: "Set the response length cap for DMs",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "chars",
						Description: "Characters per message chunk",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reset",
				Description: "Reset the persona to defaults",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Clear the persona to a neutral AI",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reload-prompt",
				Description: "Reload the base prompt document",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "context",
				Description: "Conversation memory settings",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "enable",
						Description: "Enable conversation memory",
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "disable",
						Description: "Disable conversation memory",
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "length",
						Description: "Set how many exchanges to remember",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionInteger,
								Name:        "value",
								Description: "Exchanges to keep (0-50)",
								Required:    true,
							},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "clear",
						Description: "Clear memory for all channels",
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "clear-channel",
						Description: "Clear memory for this channel",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "auto-reply",
				Description: "Unsolicited reply settings",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "enable",
						Description: "Reply without being mentioned",
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "disable",
						Description: "Only reply to mentions and DMs",
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "probability",
						Description: "Chance of replying to an eligible message",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionNumber,
								Name:        "value",
								Description: "Probability between 0.0 and 1.0",
								Required:    true,
							},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "cooldown",
						Description: "Seconds between auto-replies in one channel",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionInteger,
								Name:        "seconds",
								Description: "Cooldown seconds",
								Required:    true,
							},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "triggers",
						Description: "Set trigger words (space separated)",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionString,
								Name:        "words",
								Description: "Words that make a message eligible",
								Required:    true,
							},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "clear-triggers",
						Description: "Remove all trigger words",
					},
				},
			},
		},
	}
}

func (c *ManagePersonaCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s := context.Session
	e := context.Event
	engine := context.Services.Engine
	persona := engine.Persona()

	data := e.ApplicationCommandData()
	if len(data.Options) == 0 {
		return bot.RespondEphemeral(s, e, "No subcommand provided.")
	}
	sub := data.Options[0]

	switch sub.Name {
	case "view":
		return c.runView(s, e, persona)

	case "prompt":
		text := sub.Options[0].StringValue()
		persona.Apply(mind.Update{SystemPrompt: &text})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ System prompt updated: %s", preview(text, 100)))

	case "safety":
		level := sub.Options[0].StringValue()
		persona.Apply(mind.Update{SafetyLevel: &level})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Safety level set to: %s", level))

	case "formality":
		v := sub.Options[0].StringValue()
		persona.Apply(mind.Update{Traits: &mind.TraitsUpdate{Formality: &v}})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Formality set to: %s", v))

	case "humor":
		v := sub.Options[0].StringValue()
		persona.Apply(mind.Update{Traits: &mind.TraitsUpdate{Humor: &v}})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Humor level set to: %s", v))

	case "helpfulness":
		v := sub.Options[0].StringValue()
		persona.Apply(mind.Update{Traits: &mind.TraitsUpdate{Helpfulness: &v}})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Helpfulness set to: %s", v))

	case "creativity":
		v := sub.Options[0].StringValue()
		persona.Apply(mind.Update{Traits: &mind.TraitsUpdate{Creativity: &v}})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Creativity set to: %s", v))

	case "temperature":
		v := sub.Options[0].FloatValue()
		if v < 0 || v > 2 {
			return bot.RespondEphemeral(s, e, "Temperature must be between 0.0 and 2.0.")
		}
		persona.Apply(mind.Update{Temperature: &v})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Temperature set to: %.2f", v))

	case "max-length":
		n := int(sub.Options[0].IntValue())
		if n < 1 || n > 2000 {
			return bot.RespondEphemeral(s, e, "Max length must be between 1 and 2000 characters.")
		}
		persona.Apply(mind.Update{MaxResponseLength: &n})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Max response length set to %d characters.", n))

	case "reset":
		persona.Reset()
		return bot.RespondEphemeral(s, e, "✅ Persona reset to defaults.")

	case "clear":
		persona.Clear()
		return bot.RespondEphemeral(s, e, "🧹 Persona cleared. The AI will now respond neutrally and only to mentions or DMs.")

	case "reload-prompt":
		persona.ReloadBase()
		return bot.RespondEphemeral(s, e, "🔄 Base prompt reloaded.")

	case "context":
		return c.runContext(s, e, engine, sub.Options[0])

	case "auto-reply":
		return c.runAutoReply(s, e, persona, sub.Options[0])

	default:
		return bot.RespondEphemeral(s, e, fmt.Sprintf("Unknown subcommand: %s", sub.Name))
	}
}

func (c *ManagePersonaCommand) runContext(s *discordgo.Session, e *discordgo.InteractionCreate,
	engine *mind.Engine, sub *discordgo.ApplicationCommandInteractionDataOption) error {

	persona := engine.Persona()
	switch sub.Name {
	case "enable":
		v := true
		persona.Apply(mind.Update{ContextEnabled: &v})
		return bot.RespondEphemeral(s, e, "✅ Context memory enabled.")
	case "disable":
		v := false
		persona.Apply(mind.Update{ContextEnabled: &v})
		return bot.RespondEphemeral(s, e, "❌ Context memory disabled.")
	case "length":
		n := int(sub.Options[0].IntValue())
		if n < 0 || n > 50 {
			return bot.RespondEphemeral(s, e, "Context length must be between 0 and 50.")
		}
		persona.Apply(mind.Update{ContextLength: &n})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Context length set to %d exchanges.", n))
	case "clear":
		engine.Contexts().Clear()
		return bot.RespondEphemeral(s, e, "🧹 All conversation context cleared.")
	case "clear-channel":
		engine.Contexts().ClearChannel(e.ChannelID)
		return bot.RespondEphemeral(s, e, "🧹 Context cleared for this channel.")
	default:
		return bot.RespondEphemeral(s, e, fmt.Sprintf("Unknown context subcommand: %s", sub.Name))
	}
}

func (c *ManagePersonaCommand) runAutoReply(s *discordgo.Session, e *discordgo.InteractionCreate,
	persona *mind.Persona, sub *discordgo.ApplicationCommandInteractionDataOption) error {

	switch sub.Name {
	case "enable":
		v := true
		persona.Apply(mind.Update{AutoReplyEnabled: &v})
		return bot.RespondEphemeral(s, e, "✅ Auto-reply enabled. The bot may respond without mentions.")
	case "disable":
		v := false
		persona.Apply(mind.Update{AutoReplyEnabled: &v})
		return bot.RespondEphemeral(s, e, "❌ Auto-reply disabled. The bot only responds to mentions and DMs.")
	case "probability":
		v := sub.Options[0].FloatValue()
		if v < 0 || v > 1 {
			return bot.RespondEphemeral(s, e, "Probability must be between 0.0 and 1.0.")
		}
		persona.Apply(mind.Update{AutoReplyProbability: &v})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Auto-reply probability set to %.2f (%.0f%%).", v, v*100))
	case "cooldown":
		n := int(sub.Options[0].IntValue())
		if n < 0 {
			return bot.RespondEphemeral(s, e, "Cooldown must be 0 or higher.")
		}
		persona.Apply(mind.Update{AutoReplyCooldownSeconds: &n})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Auto-reply cooldown set to %d seconds.", n))
	case "triggers":
		words := strings.Fields(sub.Options[0].StringValue())
		if len(words) == 0 {
			return bot.RespondEphemeral(s, e, "Please provide at least one trigger word.")
		}
		persona.Apply(mind.Update{AutoReplyTriggerWords: &words})
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Auto-reply trigger words set to: %s", strings.Join(words, ", ")))
	case "clear-triggers":
		var none []string
		persona.Apply(mind.Update{AutoReplyTriggerWords: &none})
		return bot.RespondEphemeral(s, e, "🧹 Auto-reply trigger words cleared.")
	default:
		return bot.RespondEphemeral(s, e, fmt.Sprintf("Unknown auto-reply subcommand: %s", sub.Name))
	}
}

func (c *ManagePersonaCommand) runView(s *discordgo.Session, e *discordgo.InteractionCreate, persona *mind.Persona) error {
	st := persona.Snapshot()
	embed := &discordgo.MessageEmbed{
		Title: "🤖 AI Persona Settings",
		Color: 0xff6b6b,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "System Prompt", Value: preview(st.SystemPrompt, 100)},
			{Name: "Safety Level", Value: st.SafetyLevel, Inline: true},
			{Name: "Temperature", Value: fmt.Sprintf("%.2f", st.Temperature), Inline: true},
			{Name: "Max Response Length", Value: fmt.Sprintf("%d", st.MaxResponseLength), Inline: true},
			{Name: "Context Memory", Value: onOff(st.ContextEnabled), Inline: true},
			{Name: "Context Length", Value: fmt.Sprintf("%d exchanges", st.ContextLength), Inline: true},
			{Name: "Auto-Reply", Value: onOff(st.AutoReplyEnabled), Inline: true},
			{Name: "Reply Probability", Value: fmt.Sprintf("%.0f%%", st.AutoReplyProbability*100), Inline: true},
			{Name: "Reply Cooldown", Value: fmt.Sprintf("%ds", st.AutoReplyCooldownSeconds), Inline: true},
			{Name: "Formality", Value: st.Traits.Formality, Inline: true},
			{Name: "Humor", Value: st.Traits.Humor, Inline: true},
			{Name: "Helpfulness", Value: st.Traits.Helpfulness, Inline: true},
			{Name: "Creativity", Value: st.Traits.Creativity, Inline: true},
		},
	}
	if len(st.AutoReplyTriggerWords) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Trigger Words", Value: strings.Join(st.AutoReplyTriggerWords, ", "),
		})
	}
	return bot.RespondEmbedEphemeral(s, e, embed)
}

func preview(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func onOff(v bool) string {
	if v {
		return "✅ Enabled"
	}
	return "❌ Disabled"
}

func init() {
	command.Register(
		&ManagePersonaCommand{},
		command.WithGuildOnly(),
		command.WithUserPermissionCheck(),
		command.WithCommandLogger(),
	)
}
