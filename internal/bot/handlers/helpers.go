package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/database"
	"github.com/edgard/chmasta/internal/telegram"
)

const sendMessageTimeout = 10 * time.Second

var (
	errUsage     = errors.New("wrong number of arguments")
	errInvalidID = errors.New("id is not a non-zero integer")
)

// request is a parsed private command.
type request struct {
	chatID int64
	userID int64
	args   []string
}

func newRequest(update *models.Update) (request, bool) {
	if update.Message == nil || update.Message.From == nil {
		return request{}, false
	}
	_, args := telegram.ParseCommand(update.Message.Text)
	return request{
		chatID: update.Message.Chat.ID,
		userID: update.Message.From.ID,
		args:   args,
	}, true
}

// ids parses exactly n integer arguments.
func (r request) ids(n int) ([]int64, error) {
	if len(r.args) != n {
		return nil, errUsage
	}
	out := make([]int64, n)
	for i, a := range r.args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id == 0 {
			return nil, errInvalidID
		}
		out[i] = id
	}
	return out, nil
}

// argError picks the reply for an argument parsing failure.
func argError(deps HandlerDeps, err error, usage string) string {
	if errors.Is(err, errInvalidID) {
		return deps.Config.Messages.InvalidID
	}
	return usage
}

func reply(ctx context.Context, deps HandlerDeps, log *slog.Logger, chatID int64, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	if err := deps.Messenger.SendMessage(sendCtx, chatID, text); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// audit records a completed mutation. A failed write is logged but does not
// undo the mutation or change the reply.
func audit(ctx context.Context, deps HandlerDeps, log *slog.Logger, entry *database.LogEntry) {
	if err := deps.Store.AppendLog(ctx, entry); err != nil {
		log.ErrorContext(ctx, "Failed to write audit entry", "error", err, "action", entry.Action)
	}
}

// withBotName substitutes the @botname placeholder with the bot's username.
func withBotName(deps HandlerDeps, text string) string {
	if info := deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
		return strings.ReplaceAll(text, "@botname", "@"+info.Username)
	}
	return text
}
