package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/command"
)

// ErrNoGuild is returned when guild-only data is requested from a direct message
var ErrNoGuild = errors.New("invocation is not inside a guild")

// TextInvocation is an invocation backed by a chat message
type TextInvocation struct {
	session Session
	msg     *discordgo.Message
}

// NewTextInvocation wraps msg
func NewTextInvocation(s Session, msg *discordgo.Message) *TextInvocation {
	return &TextInvocation{session: s, msg: msg}
}

// ChannelID implements command.Invocation
func (t *TextInvocation) ChannelID() string { return t.msg.ChannelID }

// GuildID implements command.Invocation
func (t *TextInvocation) GuildID() (string, bool) {
	return t.msg.GuildID, t.msg.GuildID != ""
}

// AuthorID implements command.Invocation
func (t *TextInvocation) AuthorID() string {
	if t.msg.Author == nil {
		return ""
	}
	return t.msg.Author.ID
}

// Member fetches the author's guild membership and resolves their permissions in the channel
func (t *TextInvocation) Member(ctx context.Context) (*discordgo.Member, error) {
	guildID, ok := t.GuildID()
	if !ok {
		return nil, ErrNoGuild
	}
	member, err := t.session.GuildMember(guildID, t.AuthorID(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch member %s", t.AuthorID())
	}
	perms, err := t.session.UserChannelPermissions(t.AuthorID(), t.msg.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get permissions of member %s", t.AuthorID())
	}
	member.Permissions = perms
	return member, nil
}

func (t *TextInvocation) send(ctx context.Context, r command.Response, reply bool) error {
	data := &discordgo.MessageSend{
		Content:    r.Content,
		Components: r.Components,
		Files:      r.Files,
	}
	if r.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	if reply {
		data.Reference = t.msg.Reference()
	}
	if _, err := t.session.ChannelMessageSendComplex(t.msg.ChannelID, data, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "failed to send message to channel %s", t.msg.ChannelID)
	}
	return nil
}

// Respond replies to the triggering message
func (t *TextInvocation) Respond(ctx context.Context, r command.Response) error {
	return t.send(ctx, r, true)
}

// Followup sends another message to the channel
func (t *TextInvocation) Followup(ctx context.Context, r command.Response) error {
	return t.send(ctx, r, false)
}

// AsMessage returns the triggering message
func (t *TextInvocation) AsMessage() (*discordgo.Message, bool) { return t.msg, true }

// AsInteraction always reports false
func (t *TextInvocation) AsInteraction() (*discordgo.Interaction, bool) { return nil, false }

// InteractionInvocation is an invocation backed by a slash command interaction
type InteractionInvocation struct {
	session     Session
	interaction *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

// NewInteractionInvocation wraps i
func NewInteractionInvocation(s Session, i *discordgo.Interaction) *InteractionInvocation {
	return &InteractionInvocation{session: s, interaction: i}
}

// ChannelID implements command.Invocation
func (v *InteractionInvocation) ChannelID() string { return v.interaction.ChannelID }

// GuildID implements command.Invocation
func (v *InteractionInvocation) GuildID() (string, bool) {
	return v.interaction.GuildID, v.interaction.GuildID != ""
}

// AuthorID implements command.Invocation
func (v *InteractionInvocation) AuthorID() string {
	if v.interaction.Member != nil && v.interaction.Member.User != nil {
		return v.interaction.Member.User.ID
	}
	if v.interaction.User != nil {
		return v.interaction.User.ID
	}
	return ""
}

// Member returns the member carried by the interaction. Discord resolves its
// permissions for the channel already.
func (v *InteractionInvocation) Member(ctx context.Context) (*discordgo.Member, error) {
	if v.interaction.Member == nil {
		return nil, ErrNoGuild
	}
	return v.interaction.Member, nil
}

// Respond sends the interaction response. Once a response exists further calls become followups.
func (v *InteractionInvocation) Respond(ctx context.Context, r command.Response) error {
	v.mu.Lock()
	if v.responded {
		v.mu.Unlock()
		return v.Followup(ctx, r)
	}
	v.responded = true
	v.mu.Unlock()

	data := &discordgo.InteractionResponseData{
		Content:    r.Content,
		Components: r.Components,
		Files:      r.Files,
	}
	if r.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := v.session.InteractionRespond(v.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to respond to interaction")
	}
	return nil
}

// Followup creates a followup message for the interaction
func (v *InteractionInvocation) Followup(ctx context.Context, r command.Response) error {
	params := &discordgo.WebhookParams{
		Content:    r.Content,
		Components: r.Components,
		Files:      r.Files,
	}
	if r.Embed != nil {
		params.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	if r.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	if _, err := v.session.FollowupMessageCreate(v.interaction, true, params, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to send interaction followup")
	}
	return nil
}

// AsMessage always reports false
func (v *InteractionInvocation) AsMessage() (*discordgo.Message, bool) { return nil, false }

// AsInteraction returns the triggering interaction
func (v *InteractionInvocation) AsInteraction() (*discordgo.Interaction, bool) {
	return v.interaction, true
}

var (
	_ command.Invocation = (*TextInvocation)(nil)
	_ command.Invocation = (*InteractionInvocation)(nil)
)
