package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

type overwrite struct {
	appID    string
	guildID  string
	commands []*discordgo.ApplicationCommand
}

// fakeSession records everything sent and answers lookups from maps
type fakeSession struct {
	mu sync.Mutex

	members map[string]*discordgo.Member // by user id
	perms   map[string]int64             // by user id
	permErr error

	sent       []sentMessage
	responses  []*discordgo.InteractionResponse
	followups  []*discordgo.WebhookParams
	overwrites []overwrite
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		members: make(map[string]*discordgo.Member),
		perms:   make(map[string]int64),
	}
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (f *fakeSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{Content: data.Content}, nil
}

func (f *fakeSession) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	if !ok {
		return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: userID}}, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeSession) UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permErr != nil {
		return 0, f.permErr
	}
	return f.perms[userID], nil
}

func (f *fakeSession) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if appID == "" {
		return nil, errors.New("missing application id")
	}
	f.overwrites = append(f.overwrites, overwrite{appID: appID, guildID: guildID, commands: commands})
	return commands, nil
}

func (f *fakeSession) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeSession) interactionResponses() []*discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.InteractionResponse(nil), f.responses...)
}
