package database

import (
	"database/sql"
	"strconv"
	"time"
)

// Action identifies the kind of an audit log entry.
type Action string

// Audit actions recorded by commands and by the deletion engine.
const (
	ActionSetTimer       Action = "SET_TIMER"
	ActionAdminAdd       Action = "ADMIN_ADD"
	ActionAdminRemove    Action = "ADMIN_REMOVE"
	ActionOwnerAdd       Action = "OWNER_ADD"
	ActionOwnerRemove    Action = "OWNER_REMOVE"
	ActionChannelVerify  Action = "CHANNEL_VERIFY"
	ActionMessageDeleted Action = "MESSAGE_DELETED"
	ActionDeleteFailed   Action = "DELETE_FAILED"
)

// Channel is the per-channel configuration row. TimerSeconds is NULL until a
// timer is explicitly set, in which case the configured default applies.
type Channel struct {
	ChannelID    int64         `db:"channel_id"`
	Title        string        `db:"title"`
	TimerSeconds sql.NullInt64 `db:"timer_seconds"`
	Verified     bool          `db:"verified"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// Timer returns the channel timer, or def when none is configured.
func (c Channel) Timer(def int) int {
	if !c.TimerSeconds.Valid {
		return def
	}
	return int(c.TimerSeconds.Int64)
}

// LogEntry is an immutable audit record.
type LogEntry struct {
	ID        int64          `db:"id"`
	Action    Action         `db:"action"`
	ActorID   int64          `db:"actor_id"`
	ChannelID sql.NullInt64  `db:"channel_id"`
	Details   sql.NullString `db:"details"`
	CreatedAt time.Time      `db:"created_at"`
}

// NewLogEntry builds an entry; a zero channelID or empty details are stored as NULL.
func NewLogEntry(action Action, actorID, channelID int64, details string) *LogEntry {
	return &LogEntry{
		Action:    action,
		ActorID:   actorID,
		ChannelID: sql.NullInt64{Int64: channelID, Valid: channelID != 0},
		Details:   sql.NullString{String: details, Valid: details != ""},
	}
}

// NewMessageLogEntry builds an entry about a channel message.
func NewMessageLogEntry(action Action, senderID, channelID int64, messageID int) *LogEntry {
	return NewLogEntry(action, senderID, channelID, strconv.Itoa(messageID))
}
