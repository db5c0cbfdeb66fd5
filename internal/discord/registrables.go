package discord

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/command"
)

// maxDescription is the longest description Discord accepts for commands and options
const maxDescription = 100

var optionTypes = map[command.ArgKind]discordgo.ApplicationCommandOptionType{
	command.String:         discordgo.ApplicationCommandOptionString,
	command.Integer:        discordgo.ApplicationCommandOptionInteger,
	command.Boolean:        discordgo.ApplicationCommandOptionBoolean,
	command.UserMention:    discordgo.ApplicationCommandOptionUser,
	command.ChannelMention: discordgo.ApplicationCommandOptionChannel,
	command.RoleMention:    discordgo.ApplicationCommandOptionRole,
	command.Mentionable:    discordgo.ApplicationCommandOptionMentionable,
}

func description(text, fallback string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = fallback
	}
	if r := []rune(text); len(r) > maxDescription {
		text = string(r[:maxDescription-1]) + "…"
	}
	return text
}

// ApplicationCommands exports every command accepting interactions as a slash
// command declaration. Only canonical names are declared.
func ApplicationCommands(registry *command.Sealed) []*discordgo.ApplicationCommand {
	var out []*discordgo.ApplicationCommand
	for _, cmd := range registry.All() {
		if !cmd.Routing.AcceptsInteraction() {
			continue
		}

		options := make([]*discordgo.ApplicationCommandOption, 0, len(cmd.Args))
		for _, arg := range cmd.Args {
			options = append(options, &discordgo.ApplicationCommandOption{
				Type:        optionTypes[arg.Kind],
				Name:        strings.ToLower(arg.Name),
				Description: description(arg.Description, arg.Name),
				Required:    arg.Required,
			})
		}
		// Discord rejects optional options declared before required ones.
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].Required && !options[j].Required
		})

		ac := &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        strings.ToLower(cmd.Name()),
			Description: description(cmd.Description, cmd.Name()),
			Options:     options,
		}
		if cmd.Permission == command.Restricted {
			perms := int64(discordgo.PermissionManageServer)
			ac.DefaultMemberPermissions = &perms
			dm := false
			ac.DMPermission = &dm
		}
		out = append(out, ac)
	}
	return out
}

// SyncCommands replaces the declared slash commands of appID with the registry's
// catalogue. An empty guildID declares them globally.
func SyncCommands(ctx context.Context, s Session, appID, guildID string, registry *command.Sealed) ([]*discordgo.ApplicationCommand, error) {
	declared, err := s.ApplicationCommandBulkOverwrite(appID, guildID, ApplicationCommands(registry), discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "failed to declare application commands")
	}
	return declared, nil
}
