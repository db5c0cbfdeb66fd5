package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/utils"
)

const helpColor = 0x5865F2

// Help lists every command grouped by group, or details one command
func (h *Handlers) Help(ctx context.Context, inv command.Invocation, args command.Args) error {
	if h.catalogue == nil {
		return replyError(ctx, inv, "Help is not available yet.")
	}
	prefix := h.prefixFor(ctx, inv)

	if name := strings.TrimSpace(args.Get("command")); name != "" {
		cmd, ok := h.catalogue.Lookup(strings.TrimPrefix(name, prefix))
		if !ok {
			return replyError(ctx, inv, fmt.Sprintf("Unknown command %s. Use %s to list commands.",
				utils.CodeSpan(name), utils.CodeSpan(prefix+"help")))
		}
		return inv.Respond(ctx, command.Response{Embed: commandEmbed(cmd, prefix)})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📖 Commands",
		Description: fmt.Sprintf("Use %s for details about a command.", utils.CodeSpan(prefix+"help <command>")),
		Color:       helpColor,
	}

	var group string
	var lines []string
	flush := func() {
		if len(lines) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  groupTitle(group),
				Value: utils.Truncate(strings.Join(lines, "\n"), 1024),
			})
		}
		lines = nil
	}
	for _, cmd := range h.catalogue.All() {
		if cmd.Group != group {
			flush()
			group = cmd.Group
		}
		lines = append(lines, fmt.Sprintf("%s %s", utils.CodeSpan(prefix+cmd.Name()), cmd.Description))
	}
	flush()

	return inv.Respond(ctx, command.Response{Embed: embed})
}

func groupTitle(group string) string {
	if group == "" {
		return "Other"
	}
	return group
}

func commandEmbed(cmd *command.Command, prefix string) *discordgo.MessageEmbed {
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name()
	}
	embed := &discordgo.MessageEmbed{
		Title:       prefix + cmd.Name(),
		Description: cmd.Description,
		Color:       helpColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usage", Value: utils.CodeSpan(prefix + usage)},
		},
	}

	if len(cmd.Examples) > 0 {
		examples := make([]string, len(cmd.Examples))
		for i, ex := range cmd.Examples {
			examples[i] = utils.CodeSpan(prefix + ex)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Examples", Value: strings.Join(examples, "\n")})
	}
	if len(cmd.Aliases) > 1 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: strings.Join(cmd.Aliases[1:], ", "), Inline: true})
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Permission", Value: tierLabel(cmd.Permission), Inline: true},
		&discordgo.MessageEmbedField{Name: "Available as", Value: routingLabel(cmd.Routing), Inline: true},
	)
	return embed
}

func tierLabel(t command.Tier) string {
	switch t {
	case command.Managed:
		return "Command role or Manage Server"
	case command.Restricted:
		return "Manage Server"
	}
	return "Everyone"
}

func routingLabel(r command.Routing) string {
	switch r {
	case command.TextOnly:
		return "Message"
	case command.InteractionOnly:
		return "Slash command"
	}
	return "Message and slash command"
}
