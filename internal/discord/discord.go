package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/config"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Bot connects a command registry to a Discord gateway session
type Bot struct {
	session  *discordgo.Session
	registry *command.Sealed
	settings SettingsProvider
	recorder Recorder
	cfg      config.Config
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	dispatcherOnce sync.Once
	dispatcher     *Dispatcher

	mu       sync.Mutex
	closed   bool
	removers []func()
	inflight sync.WaitGroup
}

// New creates the Discord session and registers the event handlers. Nothing is
// sent until Open is called.
func New(cfg config.Config, registry *command.Sealed, settings SettingsProvider, recorder Recorder, log logrus.FieldLogger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordBot.Token)
	if err != nil {
		return nil, errors.Wrap(err, "error creating Discord session")
	}
	session.Identify.Intents = intents
	// discordgo runs every handler call on its own goroutine
	session.SyncEvents = false

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session:  session,
		registry: registry,
		settings: settings,
		recorder: recorder,
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	b.removers = append(b.removers,
		session.AddHandler(b.onMessage),
		session.AddHandler(b.onInteraction),
	)
	return b, nil
}

// Open connects to the gateway and declares the slash command catalogue when
// configured to.
func (b *Bot) Open(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "error opening connection to Discord")
	}

	d := b.dispatcherFor()
	if d == nil {
		return errors.New("gateway did not report the bot user")
	}
	user := b.session.State.User

	if b.cfg.DiscordBot.SyncCommands {
		declared, err := SyncCommands(ctx, b.session, user.ID, b.cfg.DiscordBot.GuildID, b.registry)
		if err != nil {
			return err
		}
		b.log.WithField("count", len(declared)).Info("Declared application commands")
	}

	b.log.WithFields(logrus.Fields{
		"user":     user.Username,
		"commands": len(b.registry.All()),
	}).Info("Connected to Discord successfully")
	return nil
}

// Close stops accepting events, disconnects from the gateway and waits for
// running commands to finish.
func (b *Bot) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil
	b.mu.Unlock()

	err := b.session.Close()
	b.cancel()
	b.inflight.Wait()
	return err
}

// dispatcherFor builds the dispatcher once the gateway has reported the bot
// user. The ready event updates session state before any handler runs, so a
// nil result only happens for events that arrive before the connection is ready.
func (b *Bot) dispatcherFor() *Dispatcher {
	user := b.session.State.User
	if user == nil {
		return nil
	}
	b.dispatcherOnce.Do(func() {
		opts := []DispatcherOption{
			WithLogger(b.log),
			WithThrottle(b.cfg.Dispatch.CommandsPerSecond, b.cfg.Dispatch.Burst),
		}
		if b.recorder != nil {
			opts = append(opts, WithRecorder(b.recorder))
		}
		b.dispatcher = NewDispatcher(b.registry, b.settings, b.session, user.ID, opts...)
	})
	return b.dispatcher
}

// begin registers an event as in flight unless the bot is closing
func (b *Bot) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.inflight.Add(1)
	return true
}

func (b *Bot) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.begin() {
		return
	}
	defer b.inflight.Done()

	d := b.dispatcherFor()
	if d == nil {
		b.log.Debug("Message arrived before the bot user is known, dropping it")
		return
	}
	outcome, err := d.DispatchText(b.ctx, m)
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"guild":   m.GuildID,
			"channel": m.ChannelID,
			"author":  m.Author.ID,
			"outcome": outcome,
		}).Error("Text command failed")
	}
}

func (b *Bot) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.begin() {
		return
	}
	defer b.inflight.Done()

	d := b.dispatcherFor()
	if d == nil {
		b.log.Debug("Interaction arrived before the bot user is known, dropping it")
		return
	}
	outcome, err := d.DispatchInteraction(b.ctx, i)
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"guild":   i.GuildID,
			"channel": i.ChannelID,
			"outcome": outcome,
		}).Error("Interaction command failed")
	}
}
