package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Response is a transport-neutral reply. Ephemeral is honoured by interactions only.
type Response struct {
	Content    string
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Files      []*discordgo.File
	Ephemeral  bool
}

// Invocation is what triggered a command: a chat message or a slash command interaction.
// Handlers that need source-specific data downcast with AsMessage or AsInteraction and
// must handle the absent case.
type Invocation interface {
	ChannelID() string
	// GuildID returns false for direct messages.
	GuildID() (string, bool)
	AuthorID() string
	// Member returns the invoking guild member with Permissions resolved for the channel.
	Member(ctx context.Context) (*discordgo.Member, error)

	// Respond sends the first reply, Followup every later one.
	Respond(ctx context.Context, r Response) error
	Followup(ctx context.Context, r Response) error

	AsMessage() (*discordgo.Message, bool)
	AsInteraction() (*discordgo.Interaction, bool)
}
