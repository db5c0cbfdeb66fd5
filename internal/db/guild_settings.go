package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// GuildSettingsRepository stores guild settings in PostgreSQL
type GuildSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewGuildSettingsRepository returns a repository using pool
func NewGuildSettingsRepository(pool *pgxpool.Pool) *GuildSettingsRepository {
	return &GuildSettingsRepository{pool: pool}
}

// Load returns the stored settings of a guild
func (r *GuildSettingsRepository) Load(ctx context.Context, guildID string) (models.GuildSettings, bool, error) {
	s := models.GuildSettings{GuildID: guildID}
	err := r.pool.QueryRow(ctx,
		`SELECT prefix, allowed_role_id, manager_bypass, updated_at FROM guild_settings WHERE guild_id = $1`,
		guildID).Scan(&s.Prefix, &s.AllowedRoleID, &s.ManagerBypass, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GuildSettings{}, false, nil
	}
	if err != nil {
		return models.GuildSettings{}, false, errors.Wrapf(err, "failed to load settings of guild %s", guildID)
	}
	return s, true, nil
}

// Save upserts the settings of a guild
func (r *GuildSettingsRepository) Save(ctx context.Context, s models.GuildSettings) error {
	query := `
        INSERT INTO guild_settings (guild_id, prefix, allowed_role_id, manager_bypass)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (guild_id)
        DO UPDATE SET prefix = EXCLUDED.prefix,
                      allowed_role_id = EXCLUDED.allowed_role_id,
                      manager_bypass = EXCLUDED.manager_bypass;
    `
	if _, err := r.pool.Exec(ctx, query, s.GuildID, s.Prefix, s.AllowedRoleID, s.ManagerBypass); err != nil {
		return errors.Wrapf(err, "failed to save settings of guild %s", s.GuildID)
	}
	return nil
}
