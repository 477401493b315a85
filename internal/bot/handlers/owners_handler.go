package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/database"
)

// NewOwnersHandler returns a handler for /owners. The main owner is marked with a star.
func NewOwnersHandler(deps HandlerDeps) bot.HandlerFunc {
	return ownersHandler{deps}.Handle
}

type ownersHandler struct {
	deps HandlerDeps
}

func (h ownersHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "owners")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	owners, err := h.deps.Store.GetOwners(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list owners", "error", err)
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}

	var sb strings.Builder
	sb.WriteString(msgs.OwnersHeader)
	for _, o := range owners {
		fmt.Fprintf(&sb, "• %d", o)
		if h.deps.Gate.IsMainOwner(o) {
			sb.WriteString(" ⭐")
		}
		sb.WriteString("\n")
	}
	reply(ctx, h.deps, log, req.chatID, sb.String())
}

// NewAddOwnerHandler returns a handler for /addowner <user_id>.
func NewAddOwnerHandler(deps HandlerDeps) bot.HandlerFunc {
	return addOwnerHandler{deps}.Handle
}

type addOwnerHandler struct {
	deps HandlerDeps
}

func (h addOwnerHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "addowner")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	ids, err := req.ids(1)
	if err != nil {
		reply(ctx, h.deps, log, req.chatID, argError(h.deps, err, msgs.UsageAddOwner))
		return
	}

	if err := h.deps.Store.AddOwner(ctx, ids[0]); err != nil {
		log.ErrorContext(ctx, "Failed to add owner", "error", err, "owner_id", ids[0])
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	}
	audit(ctx, h.deps, log, database.NewLogEntry(database.ActionOwnerAdd, req.userID, 0, strconv.FormatInt(ids[0], 10)))

	log.InfoContext(ctx, "Owner added", "owner_id", ids[0], "user_id", req.userID)
	reply(ctx, h.deps, log, req.chatID, msgs.OwnerAdded)
}

// NewRemoveOwnerHandler returns a handler for /removeowner <user_id>.
func NewRemoveOwnerHandler(deps HandlerDeps) bot.HandlerFunc {
	return removeOwnerHandler{deps}.Handle
}

type removeOwnerHandler struct {
	deps HandlerDeps
}

func (h removeOwnerHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "removeowner")
	msgs := h.deps.Config.Messages

	req, ok := newRequest(update)
	if !ok {
		return
	}

	ids, err := req.ids(1)
	if err != nil {
		reply(ctx, h.deps, log, req.chatID, argError(h.deps, err, msgs.UsageRemoveOwner))
		return
	}

	removed, err := h.deps.Store.RemoveOwner(ctx, ids[0])
	switch {
	case errors.Is(err, database.ErrMainOwnerImmutable):
		log.WarnContext(ctx, "Refused to remove main owner", "user_id", req.userID)
		reply(ctx, h.deps, log, req.chatID, msgs.CannotRemoveMain)
		return
	case err != nil:
		log.ErrorContext(ctx, "Failed to remove owner", "error", err, "owner_id", ids[0])
		reply(ctx, h.deps, log, req.chatID, msgs.GeneralError)
		return
	case !removed:
		reply(ctx, h.deps, log, req.chatID, msgs.OwnerNotFound)
		return
	}
	audit(ctx, h.deps, log, database.NewLogEntry(database.ActionOwnerRemove, req.userID, 0, strconv.FormatInt(ids[0], 10)))

	log.InfoContext(ctx, "Owner removed", "owner_id", ids[0], "user_id", req.userID)
	reply(ctx, h.deps, log, req.chatID, msgs.OwnerRemoved)
}
