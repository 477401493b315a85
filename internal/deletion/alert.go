package deletion

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// OwnerLister returns the current owners.
type OwnerLister interface {
	GetOwners(ctx context.Context) ([]int64, error)
}

// Sender delivers a private text message.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

const (
	defaultSendTimeout = 10 * time.Second
	ownerLookupTimeout = 5 * time.Second
)

// OwnerAlerter broadcasts alerts to every owner, best effort: an owner that
// cannot be reached is logged and skipped, never retried.
type OwnerAlerter struct {
	owners      OwnerLister
	sender      Sender
	limiter     *rate.Limiter
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewOwnerAlerter creates an alerter. limiter paces outgoing messages and may
// be nil. sendTimeout bounds each owner's message separately, so a stalled
// owner costs at most sendTimeout and never the alerts of the others.
func NewOwnerAlerter(owners OwnerLister, sender Sender, limiter *rate.Limiter, sendTimeout time.Duration, logger *slog.Logger) *OwnerAlerter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &OwnerAlerter{
		owners:      owners,
		sender:      sender,
		limiter:     limiter,
		sendTimeout: sendTimeout,
		logger:      logger.With("component", "owner_alerter"),
	}
}

// Broadcast sends text to every current owner and returns the number of
// successful deliveries. ctx only carries cancellation: pacing may take
// longer than any single deadline, so callers should not bound it with one.
func (a *OwnerAlerter) Broadcast(ctx context.Context, text string) int {
	lookupCtx, cancel := context.WithTimeout(ctx, ownerLookupTimeout)
	owners, err := a.owners.GetOwners(lookupCtx)
	cancel()
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to load owners for alert", "error", err)
		return 0
	}

	sent := 0
	for _, ownerID := range owners {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				a.logger.WarnContext(ctx, "Alert broadcast interrupted", "error", err, "delivered", sent, "owners", len(owners))
				return sent
			}
		}
		if a.send(ctx, ownerID, text) {
			sent++
		}
	}
	return sent
}

func (a *OwnerAlerter) send(ctx context.Context, ownerID int64, text string) bool {
	sendCtx, cancel := context.WithTimeout(ctx, a.sendTimeout)
	defer cancel()

	if err := a.sender.SendMessage(sendCtx, ownerID, text); err != nil {
		a.logger.WarnContext(ctx, "Failed to alert owner", "user_id", ownerID, "error", err)
		return false
	}
	return true
}
