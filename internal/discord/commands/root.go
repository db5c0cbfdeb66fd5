// Package commands declares the built-in command set and seals it into a registry.
package commands

import (
	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/discord/handlers"
)

const (
	groupGeneral  = "General"
	groupSettings = "Settings"
	groupQR       = "QR Codes"
)

// Build registers every built-in command and returns the sealed registry. The
// help handler is given the sealed catalogue before Build returns.
func Build(h *handlers.Handlers, opts ...command.Option) (*command.Sealed, error) {
	r := command.NewRegistry(opts...)

	registerGeneralCommands(r, h)
	registerSettingsCommands(r, h)
	registerQRCommands(r, h)

	sealed, err := r.Build()
	if err != nil {
		return nil, err
	}
	h.SetCatalogue(sealed)
	return sealed, nil
}

func registerGeneralCommands(r *command.Registry, h *handlers.Handlers) {
	r.Add(&command.Command{
		Aliases:     []string{"help", "commands"},
		Description: "Show the available commands or details about one",
		Usage:       "help [command]",
		Examples:    []string{"help", "help qr"},
		Group:       groupGeneral,
		Args: []command.ArgSchema{
			{Name: "command", Description: "Command to describe", Kind: command.String},
		},
		Handler: command.HandlerFunc(h.Help),
	}).Add(&command.Command{
		Aliases:     []string{"ping"},
		Description: "Check that the bot is responding",
		Usage:       "ping",
		Group:       groupGeneral,
		Handler:     command.HandlerFunc(h.Ping),
	})
}
