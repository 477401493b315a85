package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrNotDeleted is returned when the platform reports a delete as unsuccessful
// without an error.
var ErrNotDeleted = errors.New("message was not deleted")

// api is the subset of *bot.Bot used by Client.
type api interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
}

// ChatInfo is the resolved identity of a chat.
type ChatInfo struct {
	ID    int64
	Title string
	Type  models.ChatType
}

// Client adapts the go-telegram bot to the small interfaces used by the
// deletion engine and the command handlers. The identity that deletes
// messages is the one behind the configured bot token.
type Client struct {
	api    api
	logger *slog.Logger
}

// NewClient wraps b.
func NewClient(b *bot.Bot, logger *slog.Logger) *Client {
	return newClient(b, logger)
}

func newClient(a api, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{api: a, logger: logger.With("component", "telegram_client")}
}

// SendMessage sends a plain text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// SendPhoto sends a photo by URL or file ID with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo, caption string) error {
	_, err := c.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: photo},
		Caption: caption,
	})
	if err != nil {
		return fmt.Errorf("failed to send photo to %d: %w", chatID, err)
	}
	return nil
}

// GetChat resolves a chat. It fails when the bot cannot access it.
func (c *Client) GetChat(ctx context.Context, chatID int64) (*ChatInfo, error) {
	chat, err := c.api.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}
	if chat == nil {
		return nil, fmt.Errorf("failed to get chat %d: empty response", chatID)
	}
	return &ChatInfo{ID: chat.ID, Title: chat.Title, Type: chat.Type}, nil
}

// DeleteMessage deletes a message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	ok, err := c.api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
	if err != nil {
		return fmt.Errorf("failed to delete message %d in %d: %w", messageID, chatID, err)
	}
	if !ok {
		return fmt.Errorf("failed to delete message %d in %d: %w", messageID, chatID, ErrNotDeleted)
	}
	return nil
}

// SetCommands publishes the command menu shown by Telegram clients.
func (c *Client) SetCommands(ctx context.Context, commands []models.BotCommand) error {
	if len(commands) == 0 {
		return nil
	}
	if _, err := c.api.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
		Scope:    &models.BotCommandScopeAllPrivateChats{},
	}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	c.logger.DebugContext(ctx, "Bot commands published", "count", len(commands))
	return nil
}
