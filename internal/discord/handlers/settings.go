package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/settings"
	"github.com/oatsaysai/guild-dispatch/internal/utils"
)

// Ping reports that the bot is alive and for how long
func (h *Handlers) Ping(ctx context.Context, inv command.Invocation, args command.Args) error {
	uptime := time.Since(h.started).Truncate(time.Second)
	return reply(ctx, inv, fmt.Sprintf("🏓 Pong! Up for %s.", uptime))
}

// Prefix shows the text command prefix of the current guild
func (h *Handlers) Prefix(ctx context.Context, inv command.Invocation, args command.Args) error {
	guildID, _ := inv.GuildID()
	s, err := h.settings.Get(ctx, guildID)
	if err != nil {
		h.log.WithError(err).WithField("guild", guildID).Warn("Could not load guild settings")
	}
	return reply(ctx, inv, fmt.Sprintf("The command prefix here is %s. You can also mention me or use slash commands.", utils.CodeSpan(s.Prefix)))
}

// SetPrefix changes the text command prefix of the current guild
func (h *Handlers) SetPrefix(ctx context.Context, inv command.Invocation, args command.Args) error {
	guildID, ok := inv.GuildID()
	if !ok {
		return replyError(ctx, inv, "The prefix can only be changed inside a server.")
	}
	prefix := strings.TrimSpace(args.Get("prefix"))
	if err := settings.ValidatePrefix(prefix); err != nil {
		return replyError(ctx, inv, fmt.Sprintf("The prefix must be 1 to %d characters without spaces.", settings.MaxPrefixLength))
	}

	if err := h.settings.SetPrefix(ctx, guildID, prefix); err != nil {
		if rerr := replyError(ctx, inv, "The new prefix is active but could not be saved."); rerr != nil {
			h.log.WithError(rerr).Warn("Could not send error message")
		}
		return errors.Wrap(err, "set prefix")
	}
	return reply(ctx, inv, fmt.Sprintf("✅ Command prefix set to %s.", utils.CodeSpan(prefix)))
}

// AllowRole sets or clears the role allowed to run managed commands
func (h *Handlers) AllowRole(ctx context.Context, inv command.Invocation, args command.Args) error {
	guildID, ok := inv.GuildID()
	if !ok {
		return replyError(ctx, inv, "The command role can only be changed inside a server.")
	}
	roleID := args.Get("role")

	if err := h.settings.SetAllowedRole(ctx, guildID, roleID); err != nil {
		if rerr := replyError(ctx, inv, "The command role is active but could not be saved."); rerr != nil {
			h.log.WithError(rerr).Warn("Could not send error message")
		}
		return errors.Wrap(err, "set allowed role")
	}

	if roleID == "" || roleID == guildID {
		return reply(ctx, inv, "✅ Managed commands are now open to everyone.")
	}
	return reply(ctx, inv, fmt.Sprintf("✅ Managed commands now require the <@&%s> role.", roleID))
}

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 20
)

// History lists the latest commands run in the current guild
func (h *Handlers) History(ctx context.Context, inv command.Invocation, args command.Args) error {
	guildID, ok := inv.GuildID()
	if !ok {
		return replyError(ctx, inv, "History is only kept for servers.")
	}
	if h.history == nil {
		return replyError(ctx, inv, "Command history is not enabled.")
	}

	limit := defaultHistoryLimit
	if n, ok := args.Int("limit"); ok && n > 0 {
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.history.RecentCommands(ctx, guildID, limit)
	if err != nil {
		return errors.Wrap(err, "read command history")
	}
	if len(entries) == 0 {
		return reply(ctx, inv, "No commands have been run here yet.")
	}

	var b strings.Builder
	b.WriteString("**🕑 Recent commands**\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "<t:%d:R> <@%s> %s via %s, %s\n", e.CreatedAt.Unix(), e.AuthorID, utils.CodeSpan(e.Command), e.Source, e.Outcome)
	}
	return inv.Respond(ctx, command.Response{Content: utils.Truncate(b.String(), 2000), Ephemeral: true})
}
