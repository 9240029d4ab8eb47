package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"partyreminders/internal/domain"
)

// testLogger is a no-op logger so tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type markCall struct {
	recipientID string
	at          time.Time
}

// fakeOccasionRepo is an in-memory OccasionRepository with error injection.
type fakeOccasionRepo struct {
	occasions     []*domain.Occasion
	recipients    map[string][]*domain.Recipient // occasionID -> recipients
	listErr       error
	recipientErrs map[string]error // occasionID -> error from ListPendingRecipients
	markErrs      map[string]error // recipientID -> error from MarkNotified
	markCalls     []markCall
	listRecCalls  []string
}

func newFakeOccasionRepo() *fakeOccasionRepo {
	return &fakeOccasionRepo{
		recipients:    make(map[string][]*domain.Recipient),
		recipientErrs: make(map[string]error),
		markErrs:      make(map[string]error),
	}
}

func (f *fakeOccasionRepo) addOccasion(id string, recipients ...*domain.Recipient) *domain.Occasion {
	occ := &domain.Occasion{ID: id, Name: "Party " + id, Status: domain.OccasionActive, Attributes: map[string]any{}}
	f.occasions = append(f.occasions, occ)
	for _, r := range recipients {
		r.OccasionID = id
		if r.ResponseStatus == "" {
			r.ResponseStatus = domain.ResponsePending
		}
	}
	f.recipients[id] = recipients
	return occ
}

func (f *fakeOccasionRepo) ListInWindow(ctx context.Context, start, end time.Time) ([]*domain.Occasion, error) {
	if f.listErr != nil {
		return nil, domain.NewStoreError("list occasions", f.listErr)
	}
	return f.occasions, nil
}

func (f *fakeOccasionRepo) ListPendingRecipients(ctx context.Context, occasionID string) ([]*domain.Recipient, error) {
	f.listRecCalls = append(f.listRecCalls, occasionID)
	if err := f.recipientErrs[occasionID]; err != nil {
		return nil, domain.NewStoreError("list pending recipients", err)
	}
	var out []*domain.Recipient
	for _, r := range f.recipients[occasionID] {
		if r.Pending() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeOccasionRepo) MarkNotified(ctx context.Context, recipientID string, at time.Time) error {
	f.markCalls = append(f.markCalls, markCall{recipientID: recipientID, at: at})
	if err := f.markErrs[recipientID]; err != nil {
		return domain.NewStoreError("mark notified", err)
	}
	return nil
}

// fakeTransport records sends and fails for configured addresses.
type fakeTransport struct {
	mu      sync.Mutex
	failFor map[string]error
	block   bool // block until ctx is done
	sent    []string
	sentAt  []time.Time
	nextID  int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failFor: make(map[string]error)}
}

func (f *fakeTransport) Send(ctx context.Context, to string, msg domain.RenderedNotification) (*domain.DeliveryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	f.sentAt = append(f.sentAt, time.Now())
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.failFor[to]; err != nil {
		return nil, err
	}
	f.nextID++
	return &domain.DeliveryReceipt{MessageID: fmt.Sprintf("msg-%d", f.nextID), SentAt: time.Now()}, nil
}

// fakeRenderer renders a fixed message naming the recipient.
type fakeRenderer struct{}

func (fakeRenderer) Render(occasion *domain.Occasion, recipient *domain.Recipient) domain.RenderedNotification {
	return domain.RenderedNotification{Subject: "Reminder: " + occasion.Name, TextBody: "Hi " + recipient.Name}
}

// countingThrottler never waits.
type countingThrottler struct {
	calls int
	err   error
}

func (c *countingThrottler) Throttle(ctx context.Context) error {
	c.calls++
	return c.err
}

// fakeLocker grants leases unless the occasion is in held, and records releases.
type fakeLocker struct {
	held     map[string]bool
	err      error
	released []string
}

func (f *fakeLocker) Acquire(ctx context.Context, occasionID string) (domain.Lease, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held[occasionID] {
		return nil, false, nil
	}
	return &fakeLease{locker: f, id: occasionID}, true, nil
}

type fakeLease struct {
	locker *fakeLocker
	id     string
}

func (l *fakeLease) Release(ctx context.Context) error {
	l.locker.released = append(l.locker.released, l.id)
	return nil
}

var errBoom = errors.New("boom")
