package models

import (
	"time"
)

// GuildSettings holds the runtime configuration of one guild
type GuildSettings struct {
	GuildID string `json:"guild_id"`
	// Prefix introduces text commands in this guild.
	Prefix string `json:"prefix"`
	// AllowedRoleID grants managed commands to its holders. Empty or equal to
	// GuildID (the @everyone role) means no restriction is configured.
	AllowedRoleID string `json:"allowed_role_id"`
	// ManagerBypass lets members with the manage-guild permission run managed
	// commands without holding AllowedRoleID.
	ManagerBypass bool      `json:"manager_bypass"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RoleRestricted reports whether a command role is configured for the guild
func (g GuildSettings) RoleRestricted() bool {
	return g.AllowedRoleID != "" && g.AllowedRoleID != g.GuildID
}

// CommandLogEntry records one dispatched command
type CommandLogEntry struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Command   string    `json:"command"`
	Source    string    `json:"source"` // "text" or "interaction"
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}
