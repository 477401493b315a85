package deletion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/chmasta/internal/database"
)

const (
	defaultDeleteTimeout = 15 * time.Second
	recordTimeout        = 10 * time.Second
	shutdownGrace        = 2 * time.Second
	defaultAlertFormat   = "⚠️ Chmasta Alert\nDelete failed in %d"
)

// Options configures a Scheduler.
type Options struct {
	// DefaultDelay in seconds, used for channels without a timer.
	DefaultDelay int
	// DeleteTimeout bounds a single delete call.
	DeleteTimeout time.Duration
	// AlertFormat receives the channel ID and becomes the owner alert.
	AlertFormat string
	Clock       clockwork.Clock
	Logger      *slog.Logger
}

type pendingKey struct {
	chatID    int64
	messageID int
}

type pendingDeletion struct {
	msg    Message
	delay  time.Duration
	fireAt time.Time
	timer  clockwork.Timer
}

// Scheduler evaluates channel posts and runs one timer per eligible post.
// Handle never waits for the delay, so a long timer on one post does not
// hold back any other post.
type Scheduler struct {
	store    Store
	deleter  Deleter
	notifier Notifier
	clock    clockwork.Clock
	logger   *slog.Logger

	defaultDelay  int
	deleteTimeout time.Duration
	recordTimeout time.Duration
	alertFormat   string

	// ctx is the parent of every delete call; cancelled only when a
	// shutdown drain times out.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[pendingKey]*pendingDeletion
	closed  bool
	wg      sync.WaitGroup
}

// NewScheduler creates a deletion scheduler. notifier may be nil, in which
// case failures are only logged and recorded.
func NewScheduler(store Store, deleter Deleter, notifier Notifier, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.DeleteTimeout <= 0 {
		opts.DeleteTimeout = defaultDeleteTimeout
	}
	if opts.AlertFormat == "" {
		opts.AlertFormat = defaultAlertFormat
	}
	opts.DefaultDelay = clampDelay(opts.DefaultDelay)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:         store,
		deleter:       deleter,
		notifier:      notifier,
		clock:         opts.Clock,
		logger:        opts.Logger.With("component", "deletion_scheduler"),
		defaultDelay:  opts.DefaultDelay,
		deleteTimeout: opts.DeleteTimeout,
		recordTimeout: recordTimeout,
		alertFormat:   opts.AlertFormat,
		ctx:           ctx,
		cancel:        cancel,
		pending:       make(map[pendingKey]*pendingDeletion),
	}
}

// Handle evaluates a channel post. Ineligible posts produce no side effects.
// Eligible posts are scheduled for deletion after the channel timer, captured
// now: later whitelist or timer edits do not affect the scheduled task.
func (s *Scheduler) Handle(ctx context.Context, msg Message) (Outcome, error) {
	log := s.logger.With("chat_id", msg.ChatID, "message_id", msg.MessageID)

	if !msg.HasSender() {
		log.DebugContext(ctx, "Ignoring post without sender")
		return OutcomeIgnored, nil
	}

	admins, err := s.store.GetAdmins(ctx, msg.ChatID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("failed to load admins for channel %d: %w", msg.ChatID, err)
	}
	if !Eligible(msg.SenderID, admins) {
		log.DebugContext(ctx, "Ignoring post from non-whitelisted sender", "user_id", msg.SenderID)
		return OutcomeIgnored, nil
	}

	seconds, err := s.store.GetTimer(ctx, msg.ChatID, s.defaultDelay)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("failed to load timer for channel %d: %w", msg.ChatID, err)
	}
	if clamped := clampDelay(seconds); clamped != seconds {
		log.WarnContext(ctx, "Channel timer out of range, clamped", "seconds", seconds, "used", clamped)
		seconds = clamped
	}

	delay := time.Duration(seconds) * time.Second
	fireAt, err := s.schedule(msg, delay)
	if err != nil {
		return OutcomeIgnored, err
	}

	log.InfoContext(ctx, "Deletion scheduled", "user_id", msg.SenderID, "delay", delay, "fire_at", fireAt)
	return OutcomeScheduled, nil
}

func clampDelay(seconds int) int {
	return min(max(seconds, 0), MaxDelaySeconds)
}

func (s *Scheduler) schedule(msg Message, delay time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return time.Time{}, ErrStopped
	}

	p := &pendingDeletion{
		msg:    msg,
		delay:  delay,
		fireAt: s.clock.Now().Add(delay),
	}
	s.wg.Add(1)
	// The callback takes s.mu before touching the map, so it cannot observe
	// the map before p is inserted below.
	p.timer = s.clock.AfterFunc(delay, func() { s.fire(p) })
	s.pending[pendingKey{msg.ChatID, msg.MessageID}] = p

	return p.fireAt, nil
}

func (s *Scheduler) fire(p *pendingDeletion) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Deletion task panicked",
				"chat_id", p.msg.ChatID, "message_id", p.msg.MessageID, "panic", r)
		}
	}()

	s.mu.Lock()
	key := pendingKey{p.msg.ChatID, p.msg.MessageID}
	if s.pending[key] == p {
		delete(s.pending, key)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.deleteTimeout)
	err := s.deleter.DeleteMessage(ctx, p.msg.ChatID, p.msg.MessageID)
	cancel()

	s.record(p.msg, err)
}

// record writes the outcome of a delete call and alerts owners on failure.
// Audit writes run detached from shutdown so a finished delete is always
// recorded. The owner alert is paced and may outlast recordTimeout, so it only
// stops when a drain times out.
func (s *Scheduler) record(msg Message, deleteErr error) {
	log := s.logger.With("chat_id", msg.ChatID, "message_id", msg.MessageID, "user_id", msg.SenderID)

	if deleteErr == nil {
		log.Info("Message deleted")
		entry := database.NewMessageLogEntry(database.ActionMessageDeleted, msg.SenderID, msg.ChatID, msg.MessageID)
		if err := s.appendLog(entry); err != nil {
			log.Error("Failed to record deletion", "error", err)
		}
		return
	}

	log.Warn("Message deletion failed", "error", deleteErr)
	entry := database.NewLogEntry(database.ActionDeleteFailed, msg.SenderID, msg.ChatID, deleteErr.Error())
	if err := s.appendLog(entry); err != nil {
		log.Error("Failed to record deletion failure", "error", err)
	}

	if s.notifier == nil {
		return
	}
	sent := s.notifier.Broadcast(s.ctx, fmt.Sprintf(s.alertFormat, msg.ChatID))
	log.Debug("Owners alerted", "delivered", sent)
}

func (s *Scheduler) appendLog(entry *database.LogEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), s.recordTimeout)
	defer cancel()
	return s.store.AppendLog(ctx, entry)
}

// Pending returns a snapshot of scheduled deletions that have not fired.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, Pending{
			ChatID:    p.msg.ChatID,
			MessageID: p.msg.MessageID,
			SenderID:  p.msg.SenderID,
			Delay:     p.delay,
			FireAt:    p.fireAt,
		})
	}
	return out
}

// Shutdown stops accepting posts, drops timers that have not fired and waits
// for running delete calls. If ctx ends first, running calls and owner alerts
// are cancelled, Shutdown waits at most shutdownGrace more for them to return
// and ctx.Err() is returned. An audit write still in flight after that is
// abandoned.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	dropped := 0
	for key, p := range s.pending {
		if p.timer.Stop() {
			s.wg.Done()
			dropped++
		}
		delete(s.pending, key)
	}
	s.mu.Unlock()

	if dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped pending deletions on shutdown", "count", dropped)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.InfoContext(ctx, "Deletion scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		select {
		case <-done:
		case <-s.clock.After(shutdownGrace):
			s.logger.WarnContext(ctx, "Deletion tasks still running after drain timeout", "grace", shutdownGrace)
		}
		s.logger.WarnContext(ctx, "Deletion scheduler drain interrupted", "error", ctx.Err())
		return ctx.Err()
	}
}
