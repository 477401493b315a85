// Package main is the entry point for the Chmasta Telegram bot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/edgard/chmasta/internal/auth"
	"github.com/edgard/chmasta/internal/bot"
	"github.com/edgard/chmasta/internal/bot/handlers"
	"github.com/edgard/chmasta/internal/bot/tasks"
	"github.com/edgard/chmasta/internal/config"
	"github.com/edgard/chmasta/internal/database"
	"github.com/edgard/chmasta/internal/deletion"
	"github.com/edgard/chmasta/internal/logger"
	"github.com/edgard/chmasta/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "chmasta",
		Short:         "Deletes whitelisted admins' channel posts after a per-channel delay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path to configuration file")
	root.AddCommand(newMigrateCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.NewDB(dbPath)
			if err != nil {
				slog.Error("Failed to migrate database", "path", dbPath, "error", err)
				return err
			}
			database.CloseDB(db)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", config.DefaultDBPath, "Path to the SQLite database")
	return cmd
}

// run wires every component, runs the bot until ctx is cancelled and
// returns a non-nil error on failure.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)

	store := database.NewStore(db, cfg.Telegram.MainOwnerID, log)
	if err := store.EnsureMainOwner(ctx); err != nil {
		log.Error("Failed to seed main owner", "error", err)
		return err
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithHTTPClient(cfg.Telegram.PollTimeout, &http.Client{Timeout: cfg.Telegram.RequestTimeout}),
		tgbot.WithAllowedUpdates(tgbot.AllowedUpdates{"message", "channel_post"}),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram update polling error", "error", err)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return err
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	client := telegram.NewClient(tg, log)
	gate := auth.NewGate(store, cfg.Telegram.MainOwnerID)

	alerter := deletion.NewOwnerAlerter(store, client,
		rate.NewLimiter(rate.Limit(cfg.Alerts.RatePerSecond), cfg.Alerts.Burst), cfg.Alerts.SendTimeout, log)
	deleter := deletion.NewScheduler(store, client, alerter, deletion.Options{
		DefaultDelay:  cfg.Deletion.DefaultDelay,
		DeleteTimeout: cfg.Deletion.DeleteTimeout,
		AlertFormat:   cfg.Messages.DeleteFailedAlertFmt,
		Logger:        log,
	})

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Gate:      gate,
		Messenger: client,
		Deletion:  deleter,
	}
	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return err
	}
	if err := client.SetCommands(ctx, telegram.Commands(cmdHandlers)); err != nil {
		// The menu is cosmetic, commands work without it.
		log.Warn("Failed to publish command menu", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), nil)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	app := bot.NewBot(log, tg, sched, deleter, cfg.Deletion.DrainTimeout)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return runErr
	}

	log.Info("Bot stopped gracefully.")
	return nil
}
