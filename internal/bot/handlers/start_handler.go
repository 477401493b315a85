package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler sends the welcome text, as a photo caption when a start
// image is configured.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	req, ok := newRequest(update)
	if !ok {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", req.chatID, "user_id", req.userID)

	welcome := withBotName(h.deps, h.deps.Config.Messages.Welcome)

	if image := h.deps.Config.Telegram.StartImage; image != "" {
		sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
		err := h.deps.Messenger.SendPhoto(sendCtx, req.chatID, image, welcome)
		cancel()
		if err == nil {
			log.DebugContext(ctx, "Successfully sent welcome photo", "chat_id", req.chatID)
			return
		}
		log.WarnContext(ctx, "Failed to send welcome photo, falling back to text", "error", err, "chat_id", req.chatID)
	}

	reply(ctx, h.deps, log, req.chatID, welcome)
}
