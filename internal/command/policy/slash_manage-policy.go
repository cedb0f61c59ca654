package policy

import (
	"fmt"
	"log"

	"chatgate/internal/bot"
	"chatgate/internal/command"
	storepkg "chatgate/internal/policy"

	"github.com/bwmarrin/discordgo"
)

type ManagePolicyCommand struct{}

func (c *ManagePolicyCommand) Name() string        { return "manage-policy" }
func (c *ManagePolicyCommand) Description() string { return "Server access policy for the bot" }
func (c *ManagePolicyCommand) Category() string    { return "⚙️ Settings" }
func (c *ManagePolicyCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *ManagePolicyCommand) SlashDefinition() *discordgo.ApplicationCommand {
	boolChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "true", Value: "true"},
		{Name: "false", Value: "false"},
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "view",
				Description: "Show the current server policy",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enable",
				Description: "Enable the bot on this server",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Disable the bot on this server",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cooldown",
				Description: "Set the per-user cooldown",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "seconds",
						Description: "Seconds between replies to the same user (0 disables)",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "max-length",
				Description: "Set the maximum reply chunk length",
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
				Name:        "admin-only",
				Description: "Restrict the bot to administrators",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "value",
						Description: "true or false",
						Required:    true,
						Choices:     boolChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "require-mention",
				Description: "Only react when the bot is mentioned",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "value",
						Description: "true or false",
						Required:    true,
						Choices:     boolChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel-allow",
				Description: "Add a channel to the allow-list",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Channel to allow",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel-block",
				Description: "Add a channel to the block-list",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Channel to block",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "role-allow",
				Description: "Add a role to the allow-list",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to allow",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "role-block",
				Description: "Add a role to the block-list",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to block",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *ManagePolicyCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s := context.Session
	e := context.Event
	store := context.Services.Engine.Policies()
	guildID := e.GuildID

	data := e.ApplicationCommandData()
	if len(data.Options) == 0 {
		return bot.RespondEphemeral(s, e, "No subcommand provided.")
	}
	sub := data.Options[0]

	switch sub.Name {
	case "view":
		return c.runView(s, e, store.Get(guildID))

	case "enable":
		return c.setBool(s, e, store, guildID, func(u *storepkg.Update, v bool) { u.Enabled = &v }, true,
			"✅ Bot enabled for this server.")

	case "disable":
		return c.setBool(s, e, store, guildID, func(u *storepkg.Update, v bool) { u.Enabled = &v }, false,
			"❌ Bot disabled for this server.")

	case "cooldown":
		seconds := int(sub.Options[0].IntValue())
		if seconds < 0 {
			return bot.RespondEphemeral(s, e, "Cooldown must be 0 or higher.")
		}
		if err := store.Update(guildID, storepkg.Update{CooldownSeconds: &seconds}); err != nil {
			return err
		}
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Cooldown set to %d seconds.", seconds))

	case "max-length":
		chars := int(sub.Options[0].IntValue())
		if chars < 1 || chars > 2000 {
			return bot.RespondEphemeral(s, e, "Max length must be between 1 and 2000 characters.")
		}
		if err := store.Update(guildID, storepkg.Update{MaxMessageLength: &chars}); err != nil {
			return err
		}
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Max message length set to %d characters.", chars))

	case "admin-only":
		v := sub.Options[0].StringValue() == "true"
		if err := store.Update(guildID, storepkg.Update{AdminOnly: &v}); err != nil {
			return err
		}
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Admin only mode %s.", enabledWord(v)))

	case "require-mention":
		v := sub.Options[0].StringValue() == "true"
		if err := store.Update(guildID, storepkg.Update{RequireMention: &v}); err != nil {
			return err
		}
		return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ Require mention %s.", enabledWord(v)))

	case "channel-allow", "channel-block":
		ch := sub.Options[0].ChannelValue(s)
		if ch == nil {
			return bot.RespondEphemeral(s, e, "Please pick a channel.")
		}
		return c.moveListEntry(s, e, store, guildID, ch.ID, sub.Name == "channel-allow", true)

	case "role-allow", "role-block":
		role := sub.Options[0].RoleValue(s, guildID)
		if role == nil {
			return bot.RespondEphemeral(s, e, "Please pick a role.")
		}
		return c.moveListEntry(s, e, store, guildID, role.ID, sub.Name == "role-allow", false)

	default:
		return bot.RespondEphemeral(s, e, fmt.Sprintf("Unknown subcommand: %s", sub.Name))
	}
}

// moveListEntry adds the ID to one list and removes it from the
// opposing one, so a single entry is never allowed and blocked at once.
func (c *ManagePolicyCommand) moveListEntry(s *discordgo.Session, e *discordgo.InteractionCreate,
	store *storepkg.Store, guildID, id string, allow, isChannel bool) error {

	pol := store.Get(guildID)

	var allowList, blockList []string
	if isChannel {
		allowList, blockList = pol.AllowedChannels, pol.BlockedChannels
	} else {
		allowList, blockList = pol.AllowedRoles, pol.BlockedRoles
	}

	if allow {
		allowList = addID(allowList, id)
		blockList = removeID(blockList, id)
	} else {
		blockList = addID(blockList, id)
		allowList = removeID(allowList, id)
	}

	var u storepkg.Update
	if isChannel {
		u.AllowedChannels, u.BlockedChannels = &allowList, &blockList
	} else {
		u.AllowedRoles, u.BlockedRoles = &allowList, &blockList
	}
	if err := store.Update(guildID, u); err != nil {
		return err
	}

	action := "Blocked"
	if allow {
		action = "Allowed"
	}
	mention := "<@&" + id + ">"
	if isChannel {
		mention = "<#" + id + ">"
	}
	log.Printf("[INFO] Policy list change in guild %s: %s %s", guildID, action, id)
	return bot.RespondEphemeral(s, e, fmt.Sprintf("✅ %s %s", action, mention))
}

func (c *ManagePolicyCommand) runView(s *discordgo.Session, e *discordgo.InteractionCreate, pol storepkg.Policy) error {
	embed := &discordgo.MessageEmbed{
		Title: "🔧 Server Policy Settings",
		Color: 0x0099ff,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: onOff(pol.Enabled, "✅ Enabled", "❌ Disabled"), Inline: true},
			{Name: "Admin Only", Value: onOff(pol.AdminOnly, "✅ Yes", "❌ No"), Inline: true},
			{Name: "Require Mention", Value: onOff(pol.RequireMention, "✅ Yes", "❌ No"), Inline: true},
			{Name: "Cooldown", Value: fmt.Sprintf("%d seconds", pol.CooldownSeconds), Inline: true},
			{Name: "Max Message Length", Value: fmt.Sprintf("%d characters", pol.MaxMessageLength), Inline: true},
			{Name: "Allowed Channels", Value: countOr(len(pol.AllowedChannels), "channels", "All channels"), Inline: true},
			{Name: "Blocked Channels", Value: countOr(len(pol.BlockedChannels), "channels", "None"), Inline: true},
			{Name: "Allowed Roles", Value: countOr(len(pol.AllowedRoles), "roles", "All roles"), Inline: true},
			{Name: "Blocked Roles", Value: countOr(len(pol.BlockedRoles), "roles", "None"), Inline: true},
		},
	}
	return bot.RespondEmbedEphemeral(s, e, embed)
}

func (c *ManagePolicyCommand) setBool(s *discordgo.Session, e *discordgo.InteractionCreate,
	store *storepkg.Store, guildID string, set func(*storepkg.Update, bool), v bool, msg string) error {
	var u storepkg.Update
	set(&u, v)
	if err := store.Update(guildID, u); err != nil {
		return err
	}
	return bot.RespondEphemeral(s, e, msg)
}

func addID(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func removeID(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func enabledWord(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

func onOff(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func countOr(n int, noun, empty string) string {
	if n == 0 {
		return empty
	}
	return fmt.Sprintf("%d %s", n, noun)
}

func init() {
	command.Register(
		&ManagePolicyCommand{},
		command.WithGuildOnly(),
		command.WithUserPermissionCheck(),
		command.WithCommandLogger(),
	)
}
