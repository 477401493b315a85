package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/database"
)

// NewChannelHandler returns a handler for /channel <channel_id>. It resolves
// the channel through the platform before marking it verified.
func NewChannelHandler(deps HandlerDeps) bot.HandlerFunc {
	return channelHandler{deps}.Handle
}

type channelHandler struct {
	deps HandlerDeps
}

func (h channelHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "channel")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	ids, err := req.ids(1)
	if err != nil {
		reply(ctx, h.deps, log, req.chatID, argError(h.deps, err, msgs.UsageChannel))
		return
	}
	channelID := ids[0]

	info, err := h.deps.Messenger.GetChat(ctx, channelID)
	if err != nil {
		log.WarnContext(ctx, "Channel could not be resolved", "error", err, "channel_id", channelID)
		reply(ctx, h.deps, log, req.chatID, fmt.Sprintf(msgs.ChannelNotFoundFmt, channelID))
		return
	}

	if err := h.deps.Store.VerifyChannel(ctx, channelID, info.Title); err != nil {
		log.ErrorContext(ctx, "Failed to verify channel", "error", err, "channel_id", channelID)
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	audit(ctx, h.deps, log, database.NewLogEntry(database.ActionChannelVerify, req.userID, channelID, info.Title))

	log.InfoContext(ctx, "Channel verified", "channel_id", channelID, "title", info.Title, "user_id", req.userID)
	reply(ctx, h.deps, log, req.chatID, fmt.Sprintf(msgs.ChannelVerifiedFmt, channelID, info.Title))
}

// NewChannelsHandler returns a handler for /channels.
func NewChannelsHandler(deps HandlerDeps) bot.HandlerFunc {
	return channelsHandler{deps}.Handle
}

type channelsHandler struct {
	deps HandlerDeps
}

func (h channelsHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "channels")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	channels, err := h.deps.Store.GetVerifiedChannels(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list channels", "error", err)
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	if len(channels) == 0 {
		reply(ctx, h.deps, log, req.chatID, msgs.NoChannels)
		return
	}

	def := h.deps.Config.Deletion.DefaultDelay
	var sb strings.Builder
	sb.WriteString(msgs.ChannelsHeader)
	for _, c := range channels {
		fmt.Fprintf(&sb, "• %d", c.ChannelID)
		if c.Title != "" {
			fmt.Fprintf(&sb, " %s", c.Title)
		}
		fmt.Fprintf(&sb, " ⏱ %ds\n", c.Timer(def))
	}
	reply(ctx, h.deps, log, req.chatID, sb.String())
}
