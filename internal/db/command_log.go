package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// CommandLogRepository appends dispatched commands to the command_log table
type CommandLogRepository struct {
	pool *pgxpool.Pool
}

// NewCommandLogRepository returns a repository using pool
func NewCommandLogRepository(pool *pgxpool.Pool) *CommandLogRepository {
	return &CommandLogRepository{pool: pool}
}

// Record inserts one entry
func (r *CommandLogRepository) Record(ctx context.Context, e models.CommandLogEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO command_log (guild_id, channel_id, author_id, command, source, outcome) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.GuildID, e.ChannelID, e.AuthorID, e.Command, e.Source, e.Outcome)
	if err != nil {
		return errors.Wrap(err, "failed to record command")
	}
	return nil
}

// RecentCommands returns the latest entries of a guild, newest first
func (r *CommandLogRepository) RecentCommands(ctx context.Context, guildID string, limit int) ([]models.CommandLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT guild_id, channel_id, author_id, command, source, outcome, created_at
         FROM command_log WHERE guild_id = $1 ORDER BY created_at DESC LIMIT $2`,
		guildID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query command log")
	}
	defer rows.Close()

	var entries []models.CommandLogEntry
	for rows.Next() {
		var e models.CommandLogEntry
		if err := rows.Scan(&e.GuildID, &e.ChannelID, &e.AuthorID, &e.Command, &e.Source, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan command log row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
