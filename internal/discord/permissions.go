package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/models"
)

const (
	managedDeniedMessage    = "⛔ You need the command role of this server or the Manage Server permission to use this command."
	restrictedDeniedMessage = "⛔ Only members with the Manage Server permission can use this command."
)

// botRequiredPermissions must all be granted to the bot in a channel before it handles a text command there
const botRequiredPermissions = discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks

// canManageGuild reports whether perms include manage-guild, directly or through administrator
func canManageGuild(perms int64) bool {
	return perms&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
}

func hasRole(member *discordgo.Member, roleID string) bool {
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Permitted decides whether member may run a command of the given tier. A nil
// member (direct messages) passes Managed only while no allowed role is set and
// never passes Restricted.
func Permitted(tier command.Tier, settings models.GuildSettings, member *discordgo.Member) bool {
	switch tier {
	case command.Unrestricted:
		return true
	case command.Managed:
		if !settings.RoleRestricted() {
			return true
		}
		if member == nil {
			return false
		}
		if settings.ManagerBypass && canManageGuild(member.Permissions) {
			return true
		}
		return hasRole(member, settings.AllowedRoleID)
	case command.Restricted:
		return member != nil && canManageGuild(member.Permissions)
	}
	return false
}

// deniedMessage returns the user-facing denial text for a tier
func deniedMessage(tier command.Tier) string {
	if tier == command.Restricted {
		return restrictedDeniedMessage
	}
	return managedDeniedMessage
}
