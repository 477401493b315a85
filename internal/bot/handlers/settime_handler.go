package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/database"
	"github.com/edgard/chmasta/internal/deletion"
)

// NewSetTimeHandler returns a handler for /settime <channel_id> <seconds>.
// The new timer applies to posts received afterwards. Timers longer than
// deletion.MaxDelaySeconds are refused.
func NewSetTimeHandler(deps HandlerDeps) bot.HandlerFunc {
	return setTimeHandler{deps}.Handle
}

type setTimeHandler struct {
	deps HandlerDeps
}

func (h setTimeHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "settime")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	if len(req.args) != 2 {
		reply(ctx, h.deps, log, req.chatID, msgs.UsageSetTime)
		return
	}
	channel := request{args: req.args[:1]}
	ids, err := channel.ids(1)
	if err != nil {
		reply(ctx, h.deps, log, req.chatID, argError(h.deps, err, msgs.UsageSetTime))
		return
	}
	channelID := ids[0]

	seconds, err := strconv.Atoi(req.args[1])
	if err != nil || seconds < 0 || seconds > deletion.MaxDelaySeconds {
		reply(ctx, h.deps, log, req.chatID, msgs.InvalidTimer)
		return
	}

	if err := h.deps.Store.SetTimer(ctx, channelID, seconds); err != nil {
		log.ErrorContext(ctx, "Failed to set timer", "error", err, "channel_id", channelID)
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	audit(ctx, h.deps, log, database.NewLogEntry(database.ActionSetTimer, req.userID, channelID, strconv.Itoa(seconds)))

	log.InfoContext(ctx, "Timer set", "channel_id", channelID, "seconds", seconds, "user_id", req.userID)
	reply(ctx, h.deps, log, req.chatID, fmt.Sprintf(msgs.TimerSetFmt, channelID, seconds))
}
