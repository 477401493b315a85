package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/database"
)

// NewWhitelistHandler returns a handler for /whitelist <channel_id> <user_id>.
func NewWhitelistHandler(deps HandlerDeps) bot.HandlerFunc {
	return whitelistHandler{deps: deps, add: true}.Handle
}

// NewUnwhitelistHandler returns a handler for /unwhitelist <channel_id> <user_id>.
// Deletions already scheduled for the user are not cancelled.
func NewUnwhitelistHandler(deps HandlerDeps) bot.HandlerFunc {
	return whitelistHandler{deps: deps, add: false}.Handle
}

type whitelistHandler struct {
	deps HandlerDeps
	add  bool
}

func (h whitelistHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msgs := h.deps.Config.Messages
	name, usage, done, action := "unwhitelist", msgs.UsageUnwhitelist, msgs.AdminRemoved, database.ActionAdminRemove
	if h.add {
		name, usage, done, action = "whitelist", msgs.UsageWhitelist, msgs.AdminAdded, database.ActionAdminAdd
	}
	log := h.deps.Logger.With("handler", name)

	req, ok := newRequest(update)
	if !ok {
		return
	}

	ids, err := req.ids(2)
	if err != nil {
		reply(ctx, h.deps, log, req.chatID, argError(h.deps, err, usage))
		return
	}
	channelID, userID := ids[0], ids[1]

	if h.add {
		err = h.deps.Store.AddAdmin(ctx, channelID, userID)
	} else {
		err = h.deps.Store.RemoveAdmin(ctx, channelID, userID)
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to update whitelist", "error", err, "channel_id", channelID, "admin_id", userID)
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	audit(ctx, h.deps, log, database.NewLogEntry(action, req.userID, channelID, strconv.FormatInt(userID, 10)))

	log.InfoContext(ctx, "Whitelist updated", "channel_id", channelID, "admin_id", userID, "action", action)
	reply(ctx, h.deps, log, req.chatID, done)
}

// NewAdminsHandler returns a handler for /admins <channel_id>.
func NewAdminsHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminsHandler{deps}.Handle
}

type adminsHandler struct {
	deps HandlerDeps
}

func (h adminsHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admins")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	ids, err := req.ids(1)
	if err != nil {
		reply(ctx, h.deps, log, req.chatID, argError(h.deps, err, msgs.UsageAdmins))
		return
	}

	admins, err := h.deps.Store.GetAdmins(ctx, ids[0])
	if err != nil {
		log.ErrorContext(ctx, "Failed to list admins", "error", err, "channel_id", ids[0])
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	if len(admins) == 0 {
		reply(ctx, h.deps, log, req.chatID, msgs.NoAdmins)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, msgs.AdminsHeaderFmt, ids[0])
	for _, a := range admins {
		fmt.Fprintf(&sb, "• %d\n", a)
	}
	reply(ctx, h.deps, log, req.chatID, sb.String())
}
