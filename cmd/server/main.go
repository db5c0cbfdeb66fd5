package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/config"
	"github.com/oatsaysai/guild-dispatch/internal/db"
	"github.com/oatsaysai/guild-dispatch/internal/discord"
	"github.com/oatsaysai/guild-dispatch/internal/discord/commands"
	"github.com/oatsaysai/guild-dispatch/internal/discord/handlers"
	"github.com/oatsaysai/guild-dispatch/internal/history"
	"github.com/oatsaysai/guild-dispatch/internal/logging"
	"github.com/oatsaysai/guild-dispatch/internal/models"
	"github.com/oatsaysai/guild-dispatch/internal/settings"
)

// commandLog is both sides of the command history
type commandLog interface {
	discord.Recorder
	handlers.HistoryReader
}

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}
	log.WithField("config", *configFile).Info("Configuration loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var repo settings.Repository = settings.NewMemoryRepository()
	var cmdLog commandLog = history.NewMemoryLog(history.DefaultCapacity)
	if cfg.PostgreSQL.Enabled {
		pool, err := db.Connect(ctx, cfg.PostgreSQL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool, log); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
		repo = db.NewGuildSettingsRepository(pool)
		cmdLog = db.NewCommandLogRepository(pool)
	} else {
		log.Warn("PostgreSQL is disabled, guild settings will not survive a restart")
	}

	store := settings.NewStore(repo, models.GuildSettings{
		Prefix:        cfg.DiscordBot.DefaultPrefix,
		ManagerBypass: true,
	})

	h := handlers.New(store, cmdLog, log)
	registry, err := commands.Build(h, command.WithCaseInsensitive(cfg.DiscordBot.CaseInsensitive))
	if err != nil {
		log.WithError(err).Fatal("Invalid command registry")
	}

	bot, err := discord.New(*cfg, registry, store, cmdLog, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Discord bot")
	}
	if err := bot.Open(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start Discord bot")
	}

	log.Info("Guild dispatch bot is now running. Press CTRL+C to exit.")
	<-ctx.Done()
	log.Info("Received termination signal, shutting down gracefully...")

	if err := bot.Close(); err != nil {
		log.WithError(err).Warn("Error closing Discord session")
	}
}
