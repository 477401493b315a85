// Package deletion implements the delayed-deletion engine: it decides whether
// a channel post qualifies for deletion, waits the channel's delay on an
// independent timer, deletes the post and records the outcome.
package deletion

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/edgard/chmasta/internal/database"
)

// ErrStopped is returned by Handle after Shutdown.
var ErrStopped = errors.New("deletion scheduler stopped")

// MaxDelaySeconds is the longest accepted delay. Telegram refuses to let bots
// delete messages older than 48 hours.
const MaxDelaySeconds = 48 * 60 * 60

// Message is a channel post as seen by the engine.
type Message struct {
	ChatID    int64
	MessageID int
	// SenderID is zero when the platform does not identify the sender.
	SenderID int64
}

// HasSender reports whether the post has an identifiable sender.
func (m Message) HasSender() bool {
	return m.SenderID != 0
}

// Outcome is the result of evaluating a message.
type Outcome int

const (
	// OutcomeIgnored means the message is not subject to deletion.
	OutcomeIgnored Outcome = iota
	// OutcomeScheduled means a deletion task was created.
	OutcomeScheduled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScheduled:
		return "scheduled"
	default:
		return "ignored"
	}
}

// Pending describes a scheduled deletion that has not fired yet.
type Pending struct {
	ChatID    int64
	MessageID int
	SenderID  int64
	Delay     time.Duration
	FireAt    time.Time
}

// Store is the configuration and audit subset the engine needs.
type Store interface {
	GetAdmins(ctx context.Context, channelID int64) ([]int64, error)
	GetTimer(ctx context.Context, channelID int64, def int) (int, error)
	AppendLog(ctx context.Context, entry *database.LogEntry) error
}

// Deleter deletes a message on the messaging platform.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Notifier broadcasts a text to every owner and returns how many received it.
type Notifier interface {
	Broadcast(ctx context.Context, text string) int
}

// Eligible reports whether a sender's post must be deleted: only whitelisted
// admins are subject to deletion.
func Eligible(senderID int64, admins []int64) bool {
	if senderID == 0 {
		return false
	}
	return slices.Contains(admins, senderID)
}
