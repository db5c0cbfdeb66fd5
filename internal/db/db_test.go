package db

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/oatsaysai/guild-dispatch/internal/config"
	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// testConfig reads connection settings from POSTGRESQL_* variables and skips the
// test when POSTGRESQL_HOST is unset.
func testConfig(t *testing.T) config.PostgreSQLConfig {
	t.Helper()
	host := os.Getenv("POSTGRESQL_HOST")
	if host == "" {
		t.Skip("POSTGRESQL_HOST not set, skipping database test")
	}
	port, _ := strconv.Atoi(os.Getenv("POSTGRESQL_PORT"))
	if port == 0 {
		port = 5432
	}
	cfg := config.PostgreSQLConfig{
		Enabled:      true,
		Host:         host,
		Port:         port,
		User:         os.Getenv("POSTGRESQL_USER"),
		Password:     os.Getenv("POSTGRESQL_PASSWORD"),
		DBName:       os.Getenv("POSTGRESQL_DBNAME"),
		Schema:       "public",
		PoolMaxConns: 2,
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}
	if cfg.DBName == "" {
		cfg.DBName = "guild-dispatch"
	}
	return cfg
}

func TestRepositories(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pool.Close()

	log, _ := logtest.NewNullLogger()
	if err := Migrate(ctx, pool, log); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Migrate must be repeatable on every start.
	if err := Migrate(ctx, pool, log); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	guildID := "test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM guild_settings WHERE guild_id = $1`, guildID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM command_log WHERE guild_id = $1`, guildID)
	})

	settings := NewGuildSettingsRepository(pool)
	if _, ok, err := settings.Load(ctx, guildID); ok || err != nil {
		t.Fatalf("Load() of unknown guild = %v, %v", ok, err)
	}
	want := models.GuildSettings{GuildID: guildID, Prefix: "?", AllowedRoleID: "r1", ManagerBypass: false}
	if err := settings.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	want.Prefix = "$"
	if err := settings.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := settings.Load(ctx, guildID)
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	if got.Prefix != "$" || got.AllowedRoleID != "r1" || got.ManagerBypass {
		t.Errorf("Load() = %+v", got)
	}

	commandLog := NewCommandLogRepository(pool)
	for _, name := range []string{"ping", "qr"} {
		if err := commandLog.Record(ctx, models.CommandLogEntry{GuildID: guildID, ChannelID: "c", AuthorID: "u", Command: name, Source: "text", Outcome: "invoked"}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := commandLog.RecentCommands(ctx, guildID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("RecentCommands() returned %d entries", len(entries))
	}
}
