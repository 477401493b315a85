package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const logTimeFormat = "2006-01-02 15:04:05"

// NewLogsHandler returns a handler for /logs, newest entries first.
func NewLogsHandler(deps HandlerDeps) bot.HandlerFunc {
	return logsHandler{deps}.Handle
}

type logsHandler struct {
	deps HandlerDeps
}

func (h logsHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "logs")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	entries, err := h.deps.Store.RecentLogs(ctx, h.deps.Config.Audit.RecentLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read audit log", "error", err)
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	if len(entries) == 0 {
		reply(ctx, h.deps, log, req.chatID, msgs.NoLogs)
		return
	}

	var sb strings.Builder
	sb.WriteString(msgs.LogsHeader)
	for _, e := range entries {
		fmt.Fprintf(&sb, "• %s %s", e.CreatedAt.UTC().Format(logTimeFormat), e.Action)
		if e.ChannelID.Valid {
			fmt.Fprintf(&sb, " [%d]", e.ChannelID.Int64)
		}
		if e.Details.Valid {
			fmt.Fprintf(&sb, " → %s", e.Details.String)
		}
		sb.WriteString("\n")
	}
	reply(ctx, h.deps, log, req.chatID, sb.String())
}
