package commands

import (
	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/discord/handlers"
)

func registerSettingsCommands(r *command.Registry, h *handlers.Handlers) {
	r.Add(&command.Command{
		Aliases:     []string{"prefix"},
		Description: "Show the text command prefix of this server",
		Usage:       "prefix",
		Group:       groupSettings,
		Handler:     command.HandlerFunc(h.Prefix),
	}).Add(&command.Command{
		Aliases:     []string{"setprefix"},
		Description: "Change the text command prefix of this server",
		Usage:       "setprefix <prefix>",
		Examples:    []string{"setprefix ?", "setprefix $$"},
		Group:       groupSettings,
		Permission:  command.Restricted,
		Args: []command.ArgSchema{
			{Name: "prefix", Description: "New prefix, 1 to 5 characters", Kind: command.String, Required: true},
		},
		Handler: command.HandlerFunc(h.SetPrefix),
	}).Add(&command.Command{
		Aliases:     []string{"allowrole"},
		Description: "Limit managed commands to a role, or open them to everyone",
		Usage:       "allowrole [@role]",
		Examples:    []string{"allowrole @Treasurer", "allowrole"},
		Group:       groupSettings,
		Permission:  command.Restricted,
		Args: []command.ArgSchema{
			{Name: "role", Description: "Role allowed to run managed commands", Kind: command.RoleMention},
		},
		Handler: command.HandlerFunc(h.AllowRole),
	}).Add(&command.Command{
		Aliases:     []string{"history"},
		Description: "List the latest commands run in this server",
		Usage:       "history [count]",
		Examples:    []string{"history", "history 20"},
		Group:       groupSettings,
		Permission:  command.Managed,
		Args: []command.ArgSchema{
			{Name: "limit", Description: "Number of entries, at most 20", Kind: command.Integer},
		},
		Handler: command.HandlerFunc(h.History),
	})
}
