package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/chmasta/internal/deletion"
)

// Predicate classifies an update. Handlers are registered against predicates
// composed with And, Or and Not.
type Predicate func(update *models.Update) bool

// And matches when every predicate matches.
func And(preds ...Predicate) Predicate {
	return func(u *models.Update) bool {
		for _, p := range preds {
			if !p(u) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(u *models.Update) bool {
		for _, p := range preds {
			if p(u) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(u *models.Update) bool { return !p(u) }
}

// IsPrivate matches messages sent in a private chat with the bot.
func IsPrivate(u *models.Update) bool {
	return u != nil && u.Message != nil && u.Message.Chat.Type == models.ChatTypePrivate
}

// IsChannelPost matches new posts in a channel.
func IsChannelPost(u *models.Update) bool {
	return u != nil && u.ChannelPost != nil
}

// IsCommand matches messages whose first token is /name or /name@bot.
func IsCommand(name string) Predicate {
	return func(u *models.Update) bool {
		if u == nil || u.Message == nil {
			return false
		}
		cmd, _ := ParseCommand(u.Message.Text)
		return cmd == name
	}
}

// ParseCommand splits a command message into its lower-cased name without the
// leading slash or bot suffix, and its whitespace-separated arguments. cmd is
// empty when text is not a command.
func ParseCommand(text string) (cmd string, args []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd = strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

// ChannelMessage converts a channel post into the deletion engine's view.
// The sender is left zero when the post carries no author.
func ChannelMessage(u *models.Update) (deletion.Message, bool) {
	if !IsChannelPost(u) {
		return deletion.Message{}, false
	}
	post := u.ChannelPost
	msg := deletion.Message{ChatID: post.Chat.ID, MessageID: post.ID}
	if post.From != nil {
		msg.SenderID = post.From.ID
	}
	return msg, true
}
