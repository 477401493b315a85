package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/telegram"
)

// NewChannelPostHandler returns the handler that feeds channel posts to the
// deletion engine. It returns as soon as the post is evaluated.
func NewChannelPostHandler(deps HandlerDeps) bot.HandlerFunc {
	return channelPostHandler{deps}.Handle
}

type channelPostHandler struct {
	deps HandlerDeps
}

func (h channelPostHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "channel_post")

	msg, ok := telegram.ChannelMessage(update)
	if !ok {
		return
	}

	outcome, err := h.deps.Deletion.Handle(ctx, msg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to evaluate channel post", "error", err,
			"chat_id", msg.ChatID, "message_id", msg.MessageID)
		return
	}
	log.DebugContext(ctx, "Channel post evaluated", "chat_id", msg.ChatID, "message_id", msg.MessageID, "outcome", outcome)
}
