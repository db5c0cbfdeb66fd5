package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/oatsaysai/guild-dispatch/internal/settings"
)

// Config holds all configuration for the application
type Config struct {
	DiscordBot DiscordBotConfig
	PostgreSQL PostgreSQLConfig
	Dispatch   DispatchConfig
	Log        LogConfig
}

// DiscordBotConfig holds Discord bot configuration
type DiscordBotConfig struct {
	Token string
	// DefaultPrefix is used in DMs and in guilds without their own prefix.
	DefaultPrefix   string
	CaseInsensitive bool
	// SyncCommands declares the slash command catalogue on startup.
	SyncCommands bool
	// GuildID limits slash command declaration to one guild. Empty declares globally.
	GuildID string
}

// PostgreSQLConfig holds database configuration
type PostgreSQLConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Schema       string
	PoolMaxConns int
}

// DispatchConfig holds command dispatch tuning
type DispatchConfig struct {
	// CommandsPerSecond throttles each author. Zero disables throttling.
	CommandsPerSecond float64
	Burst             int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DiscordBot.Token", "")
	v.SetDefault("DiscordBot.GuildID", "")
	v.SetDefault("DiscordBot.DefaultPrefix", "!")
	v.SetDefault("DiscordBot.CaseInsensitive", true)
	v.SetDefault("DiscordBot.SyncCommands", true)

	v.SetDefault("PostgreSQL.Enabled", false)
	v.SetDefault("PostgreSQL.Host", "localhost")
	v.SetDefault("PostgreSQL.Port", 5432)
	v.SetDefault("PostgreSQL.User", "postgres")
	v.SetDefault("PostgreSQL.Password", "")
	v.SetDefault("PostgreSQL.DBName", "guild-dispatch")
	v.SetDefault("PostgreSQL.Schema", "public")
	v.SetDefault("PostgreSQL.PoolMaxConns", 10)

	v.SetDefault("Dispatch.CommandsPerSecond", 0)
	v.SetDefault("Dispatch.Burst", 3)

	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.Format", "text")
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present; environment
// variables override file values using upper-case keys with "_" for "."
// (DISCORDBOT_TOKEN, POSTGRESQL_HOST, ...).
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.DiscordBot.Token == "" {
		return errors.New("discord bot token is required")
	}
	if err := settings.ValidatePrefix(c.DiscordBot.DefaultPrefix); err != nil {
		return errors.Wrap(err, "invalid default prefix")
	}
	if c.PostgreSQL.Enabled && (c.PostgreSQL.Host == "" || c.PostgreSQL.DBName == "") {
		return errors.New("database configuration is incomplete")
	}
	if c.Dispatch.CommandsPerSecond < 0 {
		return errors.New("dispatch rate cannot be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
