package deletion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/edgard/chmasta/internal/database"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeStore struct {
	mu         sync.Mutex
	admins     map[int64][]int64
	timers     map[int64]int
	logs       []*database.LogEntry
	adminsErr  error
	timerCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{admins: map[int64][]int64{}, timers: map[int64]int{}}
}

func (f *fakeStore) GetAdmins(_ context.Context, channelID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminsErr != nil {
		return nil, f.adminsErr
	}
	return append([]int64(nil), f.admins[channelID]...), nil
}

func (f *fakeStore) GetTimer(_ context.Context, channelID int64, def int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timerCalls++
	if t, ok := f.timers[channelID]; ok {
		return t, nil
	}
	return def, nil
}

func (f *fakeStore) AppendLog(_ context.Context, entry *database.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeStore) setAdmins(channelID int64, ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins[channelID] = ids
}

func (f *fakeStore) setTimer(channelID int64, seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers[channelID] = seconds
}

func (f *fakeStore) logsFor(action database.Action, details string) []*database.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*database.LogEntry
	for _, l := range f.logs {
		if l.Action == action && (details == "" || l.Details.String == details) {
			out = append(out, l)
		}
	}
	return out
}

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

type fakeDeleter struct {
	mu    sync.Mutex
	calls []int
	fail  map[int]error
	block bool
}

func (f *fakeDeleter) DeleteMessage(ctx context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	f.calls = append(f.calls, messageID)
	err := f.fail[messageID]
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeDeleter) called(messageID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == messageID {
			return true
		}
	}
	return false
}

func (f *fakeDeleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeNotifier) Broadcast(_ context.Context, text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return 1
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

type harness struct {
	store    *fakeStore
	deleter  *fakeDeleter
	notifier *fakeNotifier
	clock    *clockwork.FakeClock
	sched    *Scheduler
}

func newHarness(t *testing.T, defaultDelay int) *harness {
	t.Helper()
	h := &harness{
		store:    newFakeStore(),
		deleter:  &fakeDeleter{fail: map[int]error{}},
		notifier: &fakeNotifier{},
		clock:    clockwork.NewFakeClock(),
	}
	h.sched = NewScheduler(h.store, h.deleter, h.notifier, Options{
		DefaultDelay:  defaultDelay,
		DeleteTimeout: time.Second,
		Clock:         h.clock,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = h.sched.Shutdown(ctx)
	})
	return h
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name   string
		sender int64
		admins []int64
		want   bool
	}{
		{name: "whitelisted", sender: 55, admins: []int64{10, 55}, want: true},
		{name: "not whitelisted", sender: 77, admins: []int64{10, 55}},
		{name: "empty whitelist", sender: 55},
		{name: "no sender", sender: 0, admins: []int64{0, 55}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.sender, tt.admins))
		})
	}
}

func TestHandleIgnoresIneligibleWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 60)
	h.store.setAdmins(-1001, 55)

	out, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 1, SenderID: 77})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	out, err = h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 2})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	// Whitelisted in another channel only.
	out, err = h.sched.Handle(ctx, Message{ChatID: -1002, MessageID: 3, SenderID: 55})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	h.clock.Advance(24 * time.Hour)

	assert.Empty(t, h.sched.Pending())
	assert.Zero(t, h.store.timerCalls)
	assert.Zero(t, h.store.logCount())
	assert.Zero(t, h.deleter.callCount())
}

func TestDeleteAfterDefaultDelay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 60)
	h.store.setAdmins(-1001, 55)
	start := h.clock.Now()

	out, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 9001, SenderID: 55})
	require.NoError(t, err)
	assert.Equal(t, OutcomeScheduled, out)

	pending := h.sched.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 60*time.Second, pending[0].Delay)
	assert.Equal(t, start.Add(60*time.Second), pending[0].FireAt)

	h.clock.Advance(59 * time.Second)
	assert.Len(t, h.sched.Pending(), 1)
	assert.False(t, h.deleter.called(9001))

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return len(h.store.logsFor(database.ActionMessageDeleted, "9001")) == 1
	}, waitFor, tick)

	entry := h.store.logsFor(database.ActionMessageDeleted, "9001")[0]
	assert.Equal(t, int64(55), entry.ActorID)
	assert.Equal(t, int64(-1001), entry.ChannelID.Int64)
	assert.True(t, h.deleter.called(9001))
	assert.Empty(t, h.sched.Pending())
	assert.Zero(t, h.notifier.count())
}

func TestIndependentScheduling(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 60)
	h.store.setAdmins(-1001, 55)

	h.store.setTimer(-1001, 3600)
	_, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 1, SenderID: 55})
	require.NoError(t, err)

	h.store.setTimer(-1001, 1)
	_, err = h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 2, SenderID: 55})
	require.NoError(t, err)
	require.Len(t, h.sched.Pending(), 2)

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return h.deleter.called(2) }, waitFor, tick)
	require.Eventually(t, func() bool { return len(h.sched.Pending()) == 1 }, waitFor, tick)
	assert.False(t, h.deleter.called(1))
	assert.Equal(t, 1, h.sched.Pending()[0].MessageID)

	h.clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return h.deleter.called(1) }, waitFor, tick)
}

func TestScheduledTaskKeepsDecisionAfterConfigChange(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)
	h.store.setAdmins(-1001, 55)

	_, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 5, SenderID: 55})
	require.NoError(t, err)

	// Unwhitelisting and changing the timer mid-delay does not cancel or move the task.
	h.store.setAdmins(-1001)
	h.store.setTimer(-1001, 3600)

	h.clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		return len(h.store.logsFor(database.ActionMessageDeleted, "5")) == 1
	}, waitFor, tick)
}

func TestDeleteFailureIsRecordedAndAlerted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 5)
	h.store.setAdmins(-1001, 55)
	h.deleter.fail[9002] = errors.New("message to delete not found")

	_, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 9002, SenderID: 55})
	require.NoError(t, err)
	h.clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool { return h.notifier.count() == 1 }, waitFor, tick)

	failed := h.store.logsFor(database.ActionDeleteFailed, "")
	require.Len(t, failed, 1)
	assert.Equal(t, "message to delete not found", failed[0].Details.String)
	assert.Equal(t, int64(55), failed[0].ActorID)
	assert.Empty(t, h.store.logsFor(database.ActionMessageDeleted, ""))
	assert.Equal(t, fmt.Sprintf(defaultAlertFormat, int64(-1001)), h.notifier.texts[0])

	// Later messages are still processed.
	_, err = h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 9003, SenderID: 55})
	require.NoError(t, err)
	h.clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool {
		return len(h.store.logsFor(database.ActionMessageDeleted, "9003")) == 1
	}, waitFor, tick)
	assert.Len(t, h.store.logsFor(database.ActionDeleteFailed, ""), 1)
}

// newAlertingScheduler wires a scheduler to a real OwnerAlerter and fails
// every delete.
func newAlertingScheduler(t *testing.T, owners []int64, sender Sender, limiter *rate.Limiter, sendTimeout time.Duration) (*Scheduler, *fakeStore, *clockwork.FakeClock) {
	t.Helper()
	store := newFakeStore()
	store.setAdmins(-1001, 55)
	clock := clockwork.NewFakeClock()
	deleter := &fakeDeleter{fail: map[int]error{9002: errors.New("message can't be deleted")}}
	alerter := NewOwnerAlerter(staticOwners{ids: owners}, sender, limiter, sendTimeout, nil)

	sched := NewScheduler(store, deleter, alerter, Options{DefaultDelay: 1, Clock: clock})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = sched.Shutdown(ctx)
	})
	return sched, store, clock
}

func TestFailedDeleteAlertsReachableOwnersDespiteStalledOwner(t *testing.T) {
	sender := &stallingSender{stalled: map[int64]bool{100: true}}
	sched, _, clock := newAlertingScheduler(t, []int64{100, 200, 300}, sender, nil, 50*time.Millisecond)
	// The audit write budget is shorter than the stalled owner's send timeout.
	sched.recordTimeout = 20 * time.Millisecond

	_, err := sched.Handle(context.Background(), Message{ChatID: -1001, MessageID: 9002, SenderID: 55})
	require.NoError(t, err)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return len(sender.delivered()) == 2 }, waitFor, tick)
	assert.Contains(t, sender.delivered(), int64(200))
	assert.Contains(t, sender.delivered(), int64(300))
}

func TestFailedDeleteAlertsEveryOwnerPastRecordTimeout(t *testing.T) {
	owners := make([]int64, 20)
	for i := range owners {
		owners[i] = int64(100 + i)
	}
	sender := &recordingSender{}
	// Pacing 20 owners takes about 100ms, well past the audit write budget.
	sched, store, clock := newAlertingScheduler(t, owners, sender, rate.NewLimiter(rate.Limit(200), 1), time.Second)
	sched.recordTimeout = 10 * time.Millisecond

	_, err := sched.Handle(context.Background(), Message{ChatID: -1001, MessageID: 9002, SenderID: 55})
	require.NoError(t, err)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return len(sender.delivered()) == len(owners) }, waitFor, tick)
	assert.Len(t, store.logsFor(database.ActionDeleteFailed, ""), 1)
}

func TestShutdownIsBoundedWhenAlertStalls(t *testing.T) {
	sender := &stallingSender{stalled: map[int64]bool{100: true}}
	sched, _, clock := newAlertingScheduler(t, []int64{100, 200}, sender, nil, time.Minute)

	_, err := sched.Handle(context.Background(), Message{ChatID: -1001, MessageID: 9002, SenderID: 55})
	require.NoError(t, err)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return sender.waiting.Load() == 1 }, waitFor, tick)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = sched.Shutdown(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandleClampsOversizedTimer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 60)
	h.store.setAdmins(-1001, 55)
	h.store.setTimer(-1001, 10_000_000_000)
	start := h.clock.Now()

	out, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 11, SenderID: 55})
	require.NoError(t, err)
	assert.Equal(t, OutcomeScheduled, out)

	pending := h.sched.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 48*time.Hour, pending[0].Delay)
	assert.Equal(t, start.Add(48*time.Hour), pending[0].FireAt)

	h.clock.Advance(47 * time.Hour)
	assert.Len(t, h.sched.Pending(), 1)
	assert.False(t, h.deleter.called(11))

	h.clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return h.deleter.called(11) }, waitFor, tick)
}

func TestDeleteCallIsBoundedByTimeout(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.setAdmins(-1001, 55)
	deleter := &fakeDeleter{block: true}
	clock := clockwork.NewFakeClock()

	sched := NewScheduler(store, deleter, nil, Options{
		DefaultDelay:  1,
		DeleteTimeout: 20 * time.Millisecond,
		Clock:         clock,
	})
	defer sched.Shutdown(context.Background()) //nolint:errcheck

	_, err := sched.Handle(ctx, Message{ChatID: -1001, MessageID: 7, SenderID: 55})
	require.NoError(t, err)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		return len(store.logsFor(database.ActionDeleteFailed, context.DeadlineExceeded.Error())) == 1
	}, waitFor, tick)
}

func TestStoreErrorIgnoresMessage(t *testing.T) {
	h := newHarness(t, 60)
	h.store.adminsErr = errors.New("db locked")

	out, err := h.sched.Handle(context.Background(), Message{ChatID: -1001, MessageID: 1, SenderID: 55})
	require.Error(t, err)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Empty(t, h.sched.Pending())
}

func TestManyConcurrentPendingDeletions(t *testing.T) {
	h := newHarness(t, 60)
	h.store.setAdmins(-1001, 55)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			out, err := h.sched.Handle(context.Background(), Message{ChatID: -1001, MessageID: id, SenderID: 55})
			assert.NoError(t, err)
			assert.Equal(t, OutcomeScheduled, out)
		}(i)
	}
	wg.Wait()
	require.Len(t, h.sched.Pending(), n)

	h.clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return len(h.store.logsFor(database.ActionMessageDeleted, "")) == n
	}, waitFor, tick)
	assert.Equal(t, n, h.deleter.callCount(), "each task deletes exactly once")
}

func TestShutdownDropsPendingAndRejectsNew(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 60)
	h.store.setAdmins(-1001, 55)

	_, err := h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 1, SenderID: 55})
	require.NoError(t, err)

	require.NoError(t, h.sched.Shutdown(ctx))
	assert.Empty(t, h.sched.Pending())

	_, err = h.sched.Handle(ctx, Message{ChatID: -1001, MessageID: 2, SenderID: 55})
	assert.ErrorIs(t, err, ErrStopped)

	h.clock.Advance(time.Hour)
	assert.Zero(t, h.deleter.callCount())
	require.NoError(t, h.sched.Shutdown(ctx), "second shutdown is a no-op")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ignored", OutcomeIgnored.String())
	assert.Equal(t, "scheduled", OutcomeScheduled.String())
}
