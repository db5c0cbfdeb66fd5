package commands

import (
	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/discord/handlers"
)

func registerQRCommands(r *command.Registry, h *handlers.Handlers) {
	r.Add(&command.Command{
		Aliases:     []string{"qr", "qrcode"},
		Description: "Create a QR code from text",
		Usage:       "qr <text>",
		Examples:    []string{"qr https://discord.com", "qrcode hello world"},
		Group:       groupQR,
		Permission:  command.Managed,
		Args: []command.ArgSchema{
			{Name: "text", Description: "Text or link to encode", Kind: command.String, Required: true},
		},
		Handler: command.HandlerFunc(h.QR),
	}).Add(&command.Command{
		Aliases:     []string{"promptpay", "pp"},
		Description: "Create a PromptPay payment QR code",
		Usage:       "promptpay <promptpay_id> <amount>",
		Examples:    []string{"promptpay 0812345678 150", "pp 1234567890123 1000"},
		Group:       groupQR,
		Permission:  command.Managed,
		Args: []command.ArgSchema{
			{Name: "id", Description: "Phone number, national ID or e-wallet ID", Kind: command.String, Required: true},
			{Name: "amount", Description: "Amount in baht", Kind: command.Integer, Required: true},
		},
		Handler: command.HandlerFunc(h.PromptPay),
	}).Add(&command.Command{
		Aliases:     []string{"readqr", "scan"},
		Description: "Read the QR code in an attached image",
		Usage:       "readqr",
		Examples:    []string{"readqr"},
		Group:       groupQR,
		Routing:     command.TextOnly,
		Handler:     command.HandlerFunc(h.ReadQR),
	})
}
