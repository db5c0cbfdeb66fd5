// Package handlers implements the built-in commands of the bot.
package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// SettingsStore reads and changes guild settings
type SettingsStore interface {
	Get(ctx context.Context, guildID string) (models.GuildSettings, error)
	SetPrefix(ctx context.Context, guildID, prefix string) error
	SetAllowedRole(ctx context.Context, guildID, roleID string) error
}

// HistoryReader lists recently dispatched commands of a guild
type HistoryReader interface {
	RecentCommands(ctx context.Context, guildID string, limit int) ([]models.CommandLogEntry, error)
}

// Catalogue is the read side of the sealed command registry
type Catalogue interface {
	All() []*command.Command
	Lookup(name string) (*command.Command, bool)
}

// Fetcher downloads the content behind an attachment URL
type Fetcher func(ctx context.Context, url string) (io.ReadCloser, error)

// Handlers holds the collaborators of the built-in commands
type Handlers struct {
	settings  SettingsStore
	history   HistoryReader
	catalogue Catalogue
	fetch     Fetcher
	log       logrus.FieldLogger
	started   time.Time
}

// New returns handlers backed by settings. history may be nil when no command
// log is kept.
func New(settings SettingsStore, history HistoryReader, log logrus.FieldLogger) *Handlers {
	return &Handlers{
		settings: settings,
		history:  history,
		fetch:    httpFetcher(&http.Client{Timeout: 15 * time.Second}),
		log:      log,
		started:  time.Now(),
	}
}

// SetCatalogue gives the help command access to the sealed registry. It must be
// called before the first dispatch.
func (h *Handlers) SetCatalogue(c Catalogue) {
	h.catalogue = c
}

// SetFetcher replaces the attachment downloader
func (h *Handlers) SetFetcher(f Fetcher) {
	h.fetch = f
}

func httpFetcher(client *http.Client) Fetcher {
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "failed to download attachment")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("attachment download returned %s", resp.Status)
		}
		return resp.Body, nil
	}
}

// reply answers the invocation with plain text
func reply(ctx context.Context, inv command.Invocation, content string) error {
	return inv.Respond(ctx, command.Response{Content: content})
}

// replyError answers with a warning only the author sees where the platform allows it
func replyError(ctx context.Context, inv command.Invocation, message string) error {
	return inv.Respond(ctx, command.Response{Content: "⚠️ " + message, Ephemeral: true})
}

// prefixFor returns the prefix shown in usage lines for this invocation
func (h *Handlers) prefixFor(ctx context.Context, inv command.Invocation) string {
	if _, ok := inv.AsInteraction(); ok {
		return "/"
	}
	guildID, _ := inv.GuildID()
	s, err := h.settings.Get(ctx, guildID)
	if err != nil {
		h.log.WithError(err).WithField("guild", guildID).Warn("Could not load guild settings")
	}
	return s.Prefix
}
