package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"

	"github.com/edgard/chmasta/internal/deletion"
)

func privateText(text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		Text: text,
		Chat: models.Chat{ID: 100, Type: models.ChatTypePrivate},
		From: &models.User{ID: 100},
	}}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		cmd  string
		args []string
	}{
		{text: "/settime -1001 60", cmd: "settime", args: []string{"-1001", "60"}},
		{text: "/SetTime@chmasta_bot  -1001   60 ", cmd: "settime", args: []string{"-1001", "60"}},
		{text: "/owners", cmd: "owners", args: []string{}},
		{text: "hello /owners", cmd: ""},
		{text: "", cmd: ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args := ParseCommand(tt.text)
			assert.Equal(t, tt.cmd, cmd)
			if tt.cmd != "" {
				assert.Equal(t, tt.args, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	post := &models.Update{ChannelPost: &models.Message{ID: 9001, Chat: models.Chat{ID: -1001, Type: models.ChatTypeChannel}}}
	group := &models.Update{Message: &models.Message{Text: "/owners", Chat: models.Chat{ID: -5, Type: models.ChatTypeSupergroup}}}

	ownersCmd := And(IsPrivate, IsCommand("owners"))

	assert.True(t, ownersCmd(privateText("/owners")))
	assert.True(t, ownersCmd(privateText("/owners@chmasta_bot")))
	assert.False(t, ownersCmd(privateText("/ownersx")))
	assert.False(t, ownersCmd(group), "commands are only accepted in private chats")
	assert.False(t, ownersCmd(post))
	assert.False(t, ownersCmd(&models.Update{}))

	assert.True(t, IsChannelPost(post))
	assert.False(t, IsChannelPost(privateText("hi")))
	assert.False(t, IsPrivate(nil))

	either := Or(IsCommand("start"), IsCommand("help"))
	assert.True(t, either(privateText("/help")))
	assert.False(t, either(privateText("/logs")))
	assert.True(t, Not(IsChannelPost)(privateText("hi")))
}

func TestChannelMessage(t *testing.T) {
	msg, ok := ChannelMessage(&models.Update{ChannelPost: &models.Message{
		ID:   9001,
		Chat: models.Chat{ID: -1001, Type: models.ChatTypeChannel},
		From: &models.User{ID: 55},
	}})
	assert.True(t, ok)
	assert.Equal(t, deletion.Message{ChatID: -1001, MessageID: 9001, SenderID: 55}, msg)

	msg, ok = ChannelMessage(&models.Update{ChannelPost: &models.Message{ID: 2, Chat: models.Chat{ID: -1001}}})
	assert.True(t, ok)
	assert.False(t, msg.HasSender())

	_, ok = ChannelMessage(privateText("/start"))
	assert.False(t, ok)
}
