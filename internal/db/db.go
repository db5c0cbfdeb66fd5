package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/oatsaysai/guild-dispatch/internal/config"
)

// Connect creates the PostgreSQL connection pool
func Connect(ctx context.Context, cfg config.PostgreSQLConfig) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable search_path=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.Schema,
	)

	connectConf, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse PostgreSQL config")
	}

	connectConf.MaxConns = int32(cfg.PoolMaxConns)
	connectConf.HealthCheckPeriod = 15 * time.Second
	connectConf.ConnConfig.ConnectTimeout = 5 * time.Second

	// Set timezone to PGX runtime
	if s := os.Getenv("TZ"); s != "" {
		connectConf.ConnConfig.RuntimeParams["timezone"] = s
	}

	pool, err := pgxpool.NewWithConfig(ctx, connectConf)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create PostgreSQL connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "unable to reach PostgreSQL")
	}
	return pool, nil
}

// Migrate sets up the database schema
func Migrate(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger) error {
	log.Info("Starting database migration...")

	// Trigger function to update 'updated_at' timestamp
	triggerFunction := `
    CREATE OR REPLACE FUNCTION update_modified_column()
    RETURNS TRIGGER AS $$
    BEGIN
       NEW.updated_at = NOW();
       RETURN NEW;
    END;
    $$ language 'plpgsql';`
	if _, err := pool.Exec(ctx, triggerFunction); err != nil {
		return errors.Wrap(err, "failed to create trigger function 'update_modified_column'")
	}

	guildSettingsSchema := `
    CREATE TABLE IF NOT EXISTS guild_settings (
        guild_id VARCHAR(32) PRIMARY KEY,
        prefix VARCHAR(16) NOT NULL,
        allowed_role_id VARCHAR(32) NOT NULL DEFAULT '',
        manager_bypass BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
    );`
	if _, err := pool.Exec(ctx, guildSettingsSchema); err != nil {
		return errors.Wrap(err, "failed to migrate guild_settings table")
	}

	guildSettingsTrigger := `
    DROP TRIGGER IF EXISTS update_guild_settings_modtime ON guild_settings;
    CREATE TRIGGER update_guild_settings_modtime
    BEFORE UPDATE ON guild_settings
    FOR EACH ROW
    EXECUTE FUNCTION update_modified_column();`
	if _, err := pool.Exec(ctx, guildSettingsTrigger); err != nil {
		return errors.Wrap(err, "failed to apply trigger to guild_settings")
	}

	commandLogSchema := `
    CREATE TABLE IF NOT EXISTS command_log (
        id BIGSERIAL PRIMARY KEY,
        guild_id VARCHAR(32) NOT NULL DEFAULT '',
        channel_id VARCHAR(32) NOT NULL,
        author_id VARCHAR(32) NOT NULL,
        command VARCHAR(64) NOT NULL,
        source VARCHAR(16) NOT NULL,
        outcome VARCHAR(16) NOT NULL,
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_command_log_guild_created ON command_log(guild_id, created_at);`
	if _, err := pool.Exec(ctx, commandLogSchema); err != nil {
		return errors.Wrap(err, "failed to migrate command_log table")
	}

	log.Info("Database migration completed successfully")
	return nil
}
