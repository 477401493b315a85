package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrMainOwnerImmutable is returned when removing the main owner is attempted.
	ErrMainOwnerImmutable = errors.New("main owner cannot be removed")
	// ErrInvalidID is returned for zero user or channel identifiers.
	ErrInvalidID = errors.New("identifier cannot be zero")
	// ErrInvalidTimer is returned for negative timers.
	ErrInvalidTimer = errors.New("timer cannot be negative")
)

// Store defines the persistence operations for owners, channels, admin
// whitelists and the audit log. Set edits are row-level inserts and deletes,
// so concurrent edits of the same set never overwrite each other.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// EnsureMainOwner makes sure the main owner is in the owner set.
	EnsureMainOwner(ctx context.Context) error

	// GetOwners returns all owners, main owner included.
	GetOwners(ctx context.Context) ([]int64, error)

	// IsOwner reports whether userID is an owner.
	IsOwner(ctx context.Context, userID int64) (bool, error)

	// AddOwner adds userID to the owner set. Adding an existing owner is a no-op.
	AddOwner(ctx context.Context, userID int64) error

	// RemoveOwner removes userID from the owner set and reports whether a row was
	// removed. The main owner is never removed: it returns false and ErrMainOwnerImmutable.
	RemoveOwner(ctx context.Context, userID int64) (bool, error)

	// SetTimer sets the deletion delay of a channel, in seconds.
	SetTimer(ctx context.Context, channelID int64, seconds int) error

	// GetTimer returns the channel delay in seconds, or def when unset.
	GetTimer(ctx context.Context, channelID int64, def int) (int, error)

	// VerifyChannel marks a channel verified, remembering its title.
	VerifyChannel(ctx context.Context, channelID int64, title string) error

	// GetVerifiedChannels lists verified channels ordered by ID.
	GetVerifiedChannels(ctx context.Context) ([]Channel, error)

	// AddAdmin whitelists userID in a channel. Adding twice is a no-op.
	AddAdmin(ctx context.Context, channelID, userID int64) error

	// RemoveAdmin removes userID from a channel whitelist. Removing an absent admin is a no-op.
	RemoveAdmin(ctx context.Context, channelID, userID int64) error

	// GetAdmins returns the whitelist of a channel, empty when unconfigured.
	GetAdmins(ctx context.Context, channelID int64) ([]int64, error)

	// AppendLog inserts an audit entry, stamping ID and CreatedAt.
	AppendLog(ctx context.Context, entry *LogEntry) error

	// RecentLogs returns at most limit entries, newest first.
	RecentLogs(ctx context.Context, limit int) ([]LogEntry, error)

	// PruneLogs deletes entries created before the given time.
	PruneLogs(ctx context.Context, before time.Time) (int64, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db          *sqlx.DB
	builder     sq.StatementBuilderType
	mainOwnerID int64
	logger      *slog.Logger
}

// NewStore creates a new Store backed by sqlx. mainOwnerID is the owner that
// can never be removed.
func NewStore(db *sqlx.DB, mainOwnerID int64, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:          db,
		builder:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		mainOwnerID: mainOwnerID,
		logger:      logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

// --- Owners ---

func (s *sqlxStore) EnsureMainOwner(ctx context.Context) error {
	if s.mainOwnerID <= 0 {
		return fmt.Errorf("main owner id must be positive, got %d", s.mainOwnerID)
	}
	if err := s.AddOwner(ctx, s.mainOwnerID); err != nil {
		return fmt.Errorf("failed to seed main owner: %w", err)
	}
	s.logger.InfoContext(ctx, "Main owner ensured", "user_id", s.mainOwnerID)
	return nil
}

func (s *sqlxStore) GetOwners(ctx context.Context) ([]int64, error) {
	owners := []int64{}
	err := s.db.SelectContext(ctx, &owners, `SELECT user_id FROM owners ORDER BY created_at, user_id`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting owners", "error", err)
		return nil, fmt.Errorf("failed to get owners: %w", err)
	}
	return owners, nil
}

func (s *sqlxStore) IsOwner(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM owners WHERE user_id = ?)`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error checking owner", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check owner %d: %w", userID, err)
	}
	return exists, nil
}

func (s *sqlxStore) AddOwner(ctx context.Context, userID int64) error {
	if userID == 0 {
		return ErrInvalidID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO owners (user_id, created_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`,
		userID, now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding owner", "user_id", userID, "error", err)
		return fmt.Errorf("failed to add owner %d: %w", userID, err)
	}
	s.logger.DebugContext(ctx, "Owner added", "user_id", userID)
	return nil
}

func (s *sqlxStore) RemoveOwner(ctx context.Context, userID int64) (bool, error) {
	if userID == s.mainOwnerID {
		s.logger.WarnContext(ctx, "Refusing to remove main owner", "user_id", userID)
		return false, ErrMainOwnerImmutable
	}
	if userID == 0 {
		return false, ErrInvalidID
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM owners WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing owner", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to remove owner %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when removing owner", "user_id", userID, "error", err)
		return true, nil
	}
	s.logger.DebugContext(ctx, "Owner removal finished", "user_id", userID, "affected", affected)
	return affected > 0, nil
}

// --- Channels ---

func (s *sqlxStore) SetTimer(ctx context.Context, channelID int64, seconds int) error {
	if channelID == 0 {
		return ErrInvalidID
	}
	if seconds < 0 {
		return ErrInvalidTimer
	}

	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (channel_id, timer_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			timer_seconds = excluded.timer_seconds,
			updated_at = excluded.updated_at`,
		channelID, seconds, ts, ts)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error setting timer", "channel_id", channelID, "seconds", seconds, "error", err)
		return fmt.Errorf("failed to set timer for channel %d: %w", channelID, err)
	}
	s.logger.DebugContext(ctx, "Timer set", "channel_id", channelID, "seconds", seconds)
	return nil
}

func (s *sqlxStore) GetTimer(ctx context.Context, channelID int64, def int) (int, error) {
	var timer sql.NullInt64
	err := s.db.GetContext(ctx, &timer, `SELECT timer_seconds FROM channels WHERE channel_id = ?`, channelID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return def, nil

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting timer", "channel_id", channelID, "error", err)
		return 0, fmt.Errorf("failed to get timer for channel %d: %w", channelID, err)
	}

	if !timer.Valid {
		return def, nil
	}
	return int(timer.Int64), nil
}

func (s *sqlxStore) VerifyChannel(ctx context.Context, channelID int64, title string) error {
	if channelID == 0 {
		return ErrInvalidID
	}

	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (channel_id, title, verified, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			title = excluded.title,
			verified = 1,
			updated_at = excluded.updated_at`,
		channelID, title, ts, ts)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error verifying channel", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to verify channel %d: %w", channelID, err)
	}
	s.logger.DebugContext(ctx, "Channel verified", "channel_id", channelID, "title", title)
	return nil
}

func (s *sqlxStore) GetVerifiedChannels(ctx context.Context) ([]Channel, error) {
	channels := []Channel{}
	err := s.db.SelectContext(ctx, &channels, `
		SELECT channel_id, title, timer_seconds, verified, created_at, updated_at
		FROM channels
		WHERE verified = 1
		ORDER BY channel_id`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting verified channels", "error", err)
		return nil, fmt.Errorf("failed to get verified channels: %w", err)
	}
	return channels, nil
}

// --- Admin whitelist ---

func (s *sqlxStore) AddAdmin(ctx context.Context, channelID, userID int64) error {
	if channelID == 0 || userID == 0 {
		return ErrInvalidID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_admins (channel_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (channel_id, user_id) DO NOTHING`,
		channelID, userID, now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding admin", "channel_id", channelID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to add admin %d to channel %d: %w", userID, channelID, err)
	}
	s.logger.DebugContext(ctx, "Admin whitelisted", "channel_id", channelID, "user_id", userID)
	return nil
}

func (s *sqlxStore) RemoveAdmin(ctx context.Context, channelID, userID int64) error {
	if channelID == 0 || userID == 0 {
		return ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM channel_admins WHERE channel_id = ? AND user_id = ?`, channelID, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing admin", "channel_id", channelID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to remove admin %d from channel %d: %w", userID, channelID, err)
	}
	affected, _ := result.RowsAffected()
	s.logger.DebugContext(ctx, "Admin removal finished", "channel_id", channelID, "user_id", userID, "affected", affected)
	return nil
}

func (s *sqlxStore) GetAdmins(ctx context.Context, channelID int64) ([]int64, error) {
	admins := []int64{}
	err := s.db.SelectContext(ctx, &admins,
		`SELECT user_id FROM channel_admins WHERE channel_id = ? ORDER BY user_id`, channelID)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching admins", "channel_id", channelID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting admins", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("failed to get admins for channel %d: %w", channelID, err)
	}
	return admins, nil
}

// --- Audit log ---

func (s *sqlxStore) AppendLog(ctx context.Context, entry *LogEntry) error {
	if entry == nil {
		return fmt.Errorf("cannot save nil log entry")
	}
	if entry.Action == "" {
		return fmt.Errorf("log entry must have an action")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now()
	}

	query, args, err := s.builder.
		Insert("audit_logs").
		Columns("action", "actor_id", "channel_id", "details", "created_at").
		Values(entry.Action, entry.ActorID, entry.ChannelID, entry.Details, entry.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build log insert: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error appending log entry", "action", entry.Action, "actor_id", entry.ActorID, "error", err)
		return fmt.Errorf("failed to append %s log entry: %w", entry.Action, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after appending log", "error", err)
	}
	return nil
}

func (s *sqlxStore) RecentLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}

	query, args, err := s.builder.
		Select("id", "action", "actor_id", "channel_id", "details", "created_at").
		From("audit_logs").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build logs query: %w", err)
	}

	entries := []LogEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent logs", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent logs: %w", err)
	}
	return entries, nil
}

func (s *sqlxStore) PruneLogs(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := s.builder.
		Delete("audit_logs").
		Where(sq.Lt{"created_at": before.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build prune query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning logs", "before", before, "error", err)
		return 0, fmt.Errorf("failed to prune logs: %w", err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Pruned audit logs", "before", before, "count", count)
	return count, nil
}
