package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/chmasta/internal/auth"
	"github.com/edgard/chmasta/internal/config"
	"github.com/edgard/chmasta/internal/database"
	"github.com/edgard/chmasta/internal/deletion"
	"github.com/edgard/chmasta/internal/telegram"
)

// Messenger is the outbound side of the platform client used by handlers.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo, caption string) error
	GetChat(ctx context.Context, chatID int64) (*telegram.ChatInfo, error)
}

// PostHandler evaluates channel posts for deletion.
type PostHandler interface {
	Handle(ctx context.Context, msg deletion.Message) (deletion.Outcome, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Gate      *auth.Gate
	Messenger Messenger
	Deletion  PostHandler
}
