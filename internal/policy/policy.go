package policy

import "strings"

// Policy controls whether and how the bot engages within one guild.
type Policy struct {
	Enabled          bool
	AllowedChannels  []string
	BlockedChannels  []string
	AllowedRoles     []string
	BlockedRoles     []string
	CooldownSeconds  int
	MaxMessageLength int
	RequireMention   bool
	AdminOnly        bool
}

// GuildPolicy is a Policy together with the guild it belongs to.
type GuildPolicy struct {
	GuildID string
	Policy
}

// Default is the policy applied to guilds with no stored row.
func Default() Policy {
	return Policy{
		Enabled:          true,
		CooldownSeconds:  5,
		MaxMessageLength: 2000,
	}
}

// Update carries a partial policy change. Nil fields keep the stored
// value, or the default when no row exists yet.
type Update struct {
	Enabled          *bool
	AllowedChannels  *[]string
	BlockedChannels  *[]string
	AllowedRoles     *[]string
	BlockedRoles     *[]string
	CooldownSeconds  *int
	MaxMessageLength *int
	RequireMention   *bool
	AdminOnly        *bool
}

func (u Update) apply(p Policy) Policy {
	if u.Enabled != nil {
		p.Enabled = *u.Enabled
	}
	if u.AllowedChannels != nil {
		p.AllowedChannels = *u.AllowedChannels
	}
	if u.BlockedChannels != nil {
		p.BlockedChannels = *u.BlockedChannels
	}
	if u.AllowedRoles != nil {
		p.AllowedRoles = *u.AllowedRoles
	}
	if u.BlockedRoles != nil {
		p.BlockedRoles = *u.BlockedRoles
	}
	if u.CooldownSeconds != nil {
		p.CooldownSeconds = *u.CooldownSeconds
	}
	if u.MaxMessageLength != nil {
		p.MaxMessageLength = *u.MaxMessageLength
	}
	if u.RequireMention != nil {
		p.RequireMention = *u.RequireMention
	}
	if u.AdminOnly != nil {
		p.AdminOnly = *u.AdminOnly
	}
	return p
}

// IDs are numeric snowflakes, so a comma never appears in a valid entry.
func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func containsAny(list, ids []string) bool {
	for _, id := range ids {
		if contains(list, id) {
			return true
		}
	}
	return false
}

// ChannelAllowed reports whether a channel passes this policy's channel
// restrictions. An entry on the allow-list wins over the block-list.
func (p Policy) ChannelAllowed(channelID string) bool {
	if contains(p.AllowedChannels, channelID) {
		return true
	}
	if len(p.AllowedChannels) > 0 {
		return false
	}
	return !contains(p.BlockedChannels, channelID)
}

// RolesAllowed reports whether a member with the given roles passes this
// policy's role restrictions. Any role on the allow-list wins.
func (p Policy) RolesAllowed(roleIDs []string) bool {
	if containsAny(p.AllowedRoles, roleIDs) {
		return true
	}
	if len(p.AllowedRoles) > 0 {
		return false
	}
	return !containsAny(p.BlockedRoles, roleIDs)
}
