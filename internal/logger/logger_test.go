package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "...", truncateString("abcdef", 2))
	assert.Equal(t, "привет...", truncateString("приветствую всех", 9))
}

func TestMiddlewareLogsChannelPost(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "debug", true)

	called := false
	h := Middleware(log)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		called = true
	})

	h(context.Background(), nil, &models.Update{
		ID: 7,
		ChannelPost: &models.Message{
			ID:   9001,
			Chat: models.Chat{ID: -1001, Type: models.ChatTypeChannel},
			From: &models.User{ID: 55},
			Text: "hello",
		},
	})

	require.True(t, called)
	out := buf.String()
	assert.True(t, strings.Contains(out, `"update_type":"channel_post"`), out)
	assert.True(t, strings.Contains(out, `"message_id":9001`), out)
	assert.True(t, strings.Contains(out, `"user_id":55`), out)
}

func TestGocronLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewGocronLogger(newLogger(&buf, "debug", false))

	log.Info("job scheduled", "name", "sql_maintenance")
	log.Error("job failed", "name", "audit_retention", "dangling")

	out := buf.String()
	assert.Contains(t, out, "component=gocron")
	assert.Contains(t, out, "name=sql_maintenance")
	assert.Contains(t, out, "extra=dangling")
	assert.NotContains(t, out, "BADKEY")
}
