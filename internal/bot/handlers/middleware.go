// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"errors"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/auth"
)

// OwnerOnly creates a middleware that lets only owners through. Anyone else
// gets the not-authorized reply and processing stops.
func OwnerOnly(deps HandlerDeps) tgbot.Middleware {
	return requireRole(deps, "OwnerOnly", deps.Gate.RequireOwner, func() string {
		return deps.Config.Messages.NotAuthorized
	})
}

// MainOwnerOnly creates a middleware that lets only the main owner through.
func MainOwnerOnly(deps HandlerDeps) tgbot.Middleware {
	return requireRole(deps, "MainOwnerOnly", deps.Gate.RequireMainOwner, func() string {
		return deps.Config.Messages.NotMainOwner
	})
}

func requireRole(deps HandlerDeps, name string, check func(context.Context, int64) error, rejection func() string) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			log := deps.Logger.With("middleware", name)

			// Commands without an identifiable sender are never privileged.
			if update.Message == nil || update.Message.From == nil {
				log.DebugContext(ctx, "Dropping update without sender", "update_id", update.ID)
				return
			}

			userID := update.Message.From.ID
			chatID := update.Message.Chat.ID

			err := check(ctx, userID)
			if err == nil {
				next(ctx, bot, update)
				return
			}

			text := rejection()
			if errors.Is(err, auth.ErrUnauthorized) {
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
			} else {
				log.ErrorContext(ctx, "Authorization check failed", "error", err, "user_id", userID)
				text = deps.Config.Messages.GeneralError
			}
			reply(ctx, deps, log, chatID, text)
		}
	}
}

// Recover turns a handler panic into an error log line.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					deps.Logger.ErrorContext(ctx, "Handler panicked",
						"update_id", update.ID, "panic", r, "stack", string(debug.Stack()))
				}
			}()
			next(ctx, bot, update)
		}
	}
}
