package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// ErrStaleRegistration means an interaction named a command the registry does not
// serve, so the declared slash catalogue and the registry have drifted apart.
var ErrStaleRegistration = errors.New("interaction references an unregistered command")

const staleCommandMessage = "⚠️ This command is no longer available."

// Outcome is how a dispatched event ended
type Outcome int

const (
	// Ignored events were not commands for this bot.
	Ignored Outcome = iota
	// Aborted events matched a command but could not be handled.
	Aborted
	// Denied events were answered with a permission denial.
	Denied
	// Throttled events exceeded the author's command rate.
	Throttled
	// Invoked events ran the command handler.
	Invoked
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Aborted:
		return "aborted"
	case Denied:
		return "denied"
	case Throttled:
		return "throttled"
	case Invoked:
		return "invoked"
	}
	return "unknown"
}

// SettingsProvider returns the runtime settings of a guild. An empty guildID
// asks for the defaults used in direct messages.
type SettingsProvider interface {
	Get(ctx context.Context, guildID string) (models.GuildSettings, error)
}

// Recorder keeps a history of dispatched commands
type Recorder interface {
	Record(ctx context.Context, e models.CommandLogEntry) error
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for dispatch diagnostics
func WithLogger(log logrus.FieldLogger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithRecorder records every denied or invoked command
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithThrottle limits each author to perSecond commands with the given burst.
// A non-positive rate disables throttling.
func WithThrottle(perSecond float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.throttle = newThrottle(perSecond, burst)
		}
	}
}

// Dispatcher routes chat messages and slash command interactions to registered commands
type Dispatcher struct {
	registry *command.Sealed
	settings SettingsProvider
	session  Session
	botID    string

	log      logrus.FieldLogger
	recorder Recorder
	throttle *throttle

	matchAttempts atomic.Uint64
}

// NewDispatcher returns a dispatcher serving registry on behalf of the bot user botID
func NewDispatcher(registry *command.Sealed, settings SettingsProvider, session Session, botID string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		settings: settings,
		session:  session,
		botID:    botID,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MatchAttempts returns how many messages were matched against the dispatch pattern
func (d *Dispatcher) MatchAttempts() uint64 {
	return d.matchAttempts.Load()
}

// DispatchText handles a chat message. Messages that are not commands for this
// bot are ignored without error.
func (d *Dispatcher) DispatchText(ctx context.Context, m *discordgo.MessageCreate) (Outcome, error) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot || strings.TrimSpace(m.Content) == "" {
		return Ignored, nil
	}

	d.matchAttempts.Add(1)
	match, ok := d.registry.Match(m.Content)
	if !ok {
		return Ignored, nil
	}

	log := d.log.WithFields(logrus.Fields{
		"event":   uuid.NewString(),
		"source":  "text",
		"guild":   m.GuildID,
		"channel": m.ChannelID,
		"author":  m.Author.ID,
		"command": match.Name,
	})

	if m.GuildID != "" {
		perms, err := d.session.UserChannelPermissions(d.botID, m.ChannelID, discordgo.WithContext(ctx))
		if err != nil {
			log.WithError(err).Warn("Could not resolve bot permissions, dropping command")
			return Aborted, nil
		}
		if perms&botRequiredPermissions != botRequiredPermissions {
			log.Warn("Bot lacks send or embed permission in channel, dropping command")
			return Aborted, nil
		}
	}

	settings := d.guildSettings(ctx, m.GuildID, log)
	if match.ByMention() {
		if match.Mention != d.botID {
			return Ignored, nil
		}
	} else if match.Prefix != settings.Prefix {
		return Ignored, nil
	}

	cmd, ok := d.registry.Lookup(match.Name)
	if !ok || !cmd.Routing.AcceptsText() {
		return Ignored, nil
	}

	args := cmd.Extract(match.Args)
	return d.run(ctx, log, cmd, NewTextInvocation(d.session, m.Message), args, settings, "text")
}

// DispatchInteraction handles a slash command interaction. Other interaction
// types are ignored.
func (d *Dispatcher) DispatchInteraction(ctx context.Context, i *discordgo.InteractionCreate) (Outcome, error) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return Ignored, nil
	}
	data := i.ApplicationCommandData()
	if data.CommandType != 0 && data.CommandType != discordgo.ChatApplicationCommand {
		return Ignored, nil
	}

	inv := NewInteractionInvocation(d.session, i.Interaction)
	log := d.log.WithFields(logrus.Fields{
		"event":   uuid.NewString(),
		"source":  "interaction",
		"guild":   i.GuildID,
		"channel": i.ChannelID,
		"author":  inv.AuthorID(),
		"command": data.Name,
	})

	cmd, ok := d.registry.Lookup(data.Name)
	if !ok || !cmd.Routing.AcceptsInteraction() {
		log.Error("Interaction references a command missing from the registry")
		if err := inv.Respond(ctx, command.Response{Content: staleCommandMessage, Ephemeral: true}); err != nil {
			log.WithError(err).Warn("Could not answer stale interaction")
		}
		return Aborted, errors.Wrapf(ErrStaleRegistration, "command %q", data.Name)
	}

	settings := d.guildSettings(ctx, i.GuildID, log)
	return d.run(ctx, log, cmd, inv, interactionArgs(cmd, data), settings, "interaction")
}

func (d *Dispatcher) guildSettings(ctx context.Context, guildID string, log logrus.FieldLogger) models.GuildSettings {
	s, err := d.settings.Get(ctx, guildID)
	if err != nil {
		log.WithError(err).Warn("Could not load guild settings, using defaults")
	}
	return s
}

// run is shared by both entry points once a command and its arguments are known
func (d *Dispatcher) run(ctx context.Context, log logrus.FieldLogger, cmd *command.Command, inv command.Invocation, args command.Args, settings models.GuildSettings, source string) (outcome Outcome, err error) {
	if d.throttle != nil && !d.throttle.allow(inv.AuthorID()) {
		log.Debug("Author is over the command rate, dropping command")
		return Throttled, nil
	}

	var member *discordgo.Member
	if cmd.Permission != command.Unrestricted {
		if _, inGuild := inv.GuildID(); inGuild {
			member, err = inv.Member(ctx)
			if err != nil {
				return Aborted, errors.Wrapf(err, "command %s: resolve member", cmd.Name())
			}
		}
	}

	if !Permitted(cmd.Permission, settings, member) {
		d.record(ctx, log, cmd, inv, source, Denied)
		if err := inv.Respond(ctx, command.Response{Content: deniedMessage(cmd.Permission), Ephemeral: true}); err != nil {
			return Denied, errors.Wrapf(err, "command %s: send denial", cmd.Name())
		}
		return Denied, nil
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Invoked
			err = errors.Errorf("command %s panicked: %v", cmd.Name(), r)
		}
		d.record(ctx, log, cmd, inv, source, Invoked)
	}()

	started := time.Now()
	if err := cmd.Handler.Handle(ctx, inv, args); err != nil {
		return Invoked, errors.Wrapf(err, "command %s", cmd.Name())
	}
	log.WithField("took", time.Since(started)).Debug("Command finished")
	return Invoked, nil
}

func (d *Dispatcher) record(ctx context.Context, log logrus.FieldLogger, cmd *command.Command, inv command.Invocation, source string, outcome Outcome) {
	if d.recorder == nil {
		return
	}
	guildID, _ := inv.GuildID()
	err := d.recorder.Record(ctx, models.CommandLogEntry{
		GuildID:   guildID,
		ChannelID: inv.ChannelID(),
		AuthorID:  inv.AuthorID(),
		Command:   cmd.Name(),
		Source:    source,
		Outcome:   outcome.String(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.WithError(err).Warn("Could not record command")
	}
}

// interactionArgs flattens the top-level options of a slash command into text
// values keyed by the schema names the text path extracts under.
func interactionArgs(cmd *command.Command, data discordgo.ApplicationCommandInteractionData) command.Args {
	args := command.Args{}
	for _, opt := range data.Options {
		name := schemaName(cmd, opt.Name)
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			args[name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			args[name] = strconv.FormatInt(opt.IntValue(), 10)
		case discordgo.ApplicationCommandOptionNumber:
			args[name] = strconv.FormatFloat(opt.FloatValue(), 'f', -1, 64)
		case discordgo.ApplicationCommandOptionBoolean:
			if opt.BoolValue() {
				args[name] = name
			}
		case discordgo.ApplicationCommandOptionUser,
			discordgo.ApplicationCommandOptionChannel,
			discordgo.ApplicationCommandOptionRole:
			args[name] = fmt.Sprint(opt.Value)
		case discordgo.ApplicationCommandOptionMentionable:
			id := fmt.Sprint(opt.Value)
			args[name] = id
			args[name+"_prefix"] = mentionablePrefix(data.Resolved, id)
		}
	}
	for k, v := range args {
		if v == "" {
			delete(args, k)
		}
	}
	return args
}

// schemaName maps a declared option name, which Discord requires in lower case,
// back to the argument name of cmd's schema.
func schemaName(cmd *command.Command, option string) string {
	for _, arg := range cmd.Args {
		if strings.EqualFold(arg.Name, option) {
			return arg.Name
		}
	}
	return option
}

// mentionablePrefix returns the mention syntax the text path would have captured for id
func mentionablePrefix(resolved *discordgo.ApplicationCommandInteractionDataResolved, id string) string {
	if resolved != nil {
		if _, ok := resolved.Roles[id]; ok {
			return "@&"
		}
		if _, ok := resolved.Channels[id]; ok {
			return "#"
		}
	}
	return "@"
}
