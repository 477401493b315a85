// Package bot implements the bot lifecycle: it runs the Telegram listener
// and the maintenance scheduler, and drains pending deletions on shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Listener receives updates until ctx is done. *bot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// Maintenance is a periodic task runner.
type Maintenance interface {
	Start() error
	Stop() error
}

// Drainer stops a component and waits for in-flight work.
type Drainer interface {
	Shutdown(ctx context.Context) error
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger       *slog.Logger
	listener     Listener
	scheduler    Maintenance
	deletion     Drainer
	drainTimeout time.Duration
}

// NewBot creates the orchestrator. drainTimeout bounds how long shutdown waits
// for deletions that are already executing.
func NewBot(logger *slog.Logger, listener Listener, scheduler Maintenance, deletion Drainer, drainTimeout time.Duration) *Bot {
	return &Bot{
		logger:       logger.With("component", "bot_orchestrator"),
		listener:     listener,
		scheduler:    scheduler,
		deletion:     deletion,
		drainTimeout: drainTimeout,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on context cancellation.
// It returns an error if any component fails during startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Draining deletion scheduler...", "timeout", b.drainTimeout)

		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), b.drainTimeout)
		defer cancel()
		if err := b.deletion.Shutdown(drainCtx); err != nil {
			b.logger.Warn("Deletion drain did not complete", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
