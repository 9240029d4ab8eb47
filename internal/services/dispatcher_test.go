package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"partyreminders/internal/adapters/ratelimit"
	"partyreminders/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(repo *fakeOccasionRepo, tr *fakeTransport, th domain.Throttler, opts DispatchOptions) domain.OccasionDispatcher {
	return NewRecipientDispatcher(repo, fakeRenderer{}, th, tr, testLogger, opts)
}

func TestRecipientDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	fixedNow := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		recipients   []*domain.Recipient
		setup        func(repo *fakeOccasionRepo, tr *fakeTransport)
		wantStatus   domain.ProcessingStatus
		wantSent     []string
		wantMarked   []string
		wantOutcomes []domain.DispatchOutcome
	}{
		{
			name: "all recipients succeed",
			recipients: []*domain.Recipient{
				{ID: "r1", Name: "Ana", Email: "ana@example.com"},
				{ID: "r2", Name: "Ben", Email: "ben@example.com"},
				{ID: "r3", Name: "Cy", Email: "cy@example.com"},
			},
			wantStatus: domain.OccasionProcessed,
			wantSent:   []string{"ana@example.com", "ben@example.com", "cy@example.com"},
			wantMarked: []string{"r1", "r2", "r3"},
			wantOutcomes: []domain.DispatchOutcome{
				{RecipientID: "r1", Address: "ana@example.com", Success: true, MessageID: "msg-1"},
				{RecipientID: "r2", Address: "ben@example.com", Success: true, MessageID: "msg-2"},
				{RecipientID: "r3", Address: "cy@example.com", Success: true, MessageID: "msg-3"},
			},
		},
		{
			name: "invalid addresses never reach the transport",
			recipients: []*domain.Recipient{
				{ID: "r1", Email: ""},
				{ID: "r2", Email: "ben@example.com"},
				{ID: "r3", Email: "not-an-email"},
				{ID: "r4", Email: "   "},
			},
			wantStatus: domain.OccasionProcessed,
			wantSent:   []string{"ben@example.com"},
			wantMarked: []string{"r2"},
			wantOutcomes: []domain.DispatchOutcome{
				{RecipientID: "r1", ErrorKind: domain.InvalidAddress, Error: "missing or malformed contact address"},
				{RecipientID: "r2", Address: "ben@example.com", Success: true, MessageID: "msg-1"},
				{RecipientID: "r3", Address: "not-an-email", ErrorKind: domain.InvalidAddress, Error: "missing or malformed contact address"},
				{RecipientID: "r4", ErrorKind: domain.InvalidAddress, Error: "missing or malformed contact address"},
			},
		},
		{
			name: "transport failure is isolated to one recipient",
			recipients: []*domain.Recipient{
				{ID: "r1", Email: "ana@example.com"},
				{ID: "r2", Email: "bounce@example.com"},
				{ID: "r3", Email: "cy@example.com"},
			},
			setup: func(repo *fakeOccasionRepo, tr *fakeTransport) {
				tr.failFor["bounce@example.com"] = domain.NewTransportError(domain.ProviderRejected, errBoom)
			},
			wantStatus: domain.OccasionProcessed,
			wantSent:   []string{"ana@example.com", "bounce@example.com", "cy@example.com"},
			wantMarked: []string{"r1", "r3"},
			wantOutcomes: []domain.DispatchOutcome{
				{RecipientID: "r1", Address: "ana@example.com", Success: true, MessageID: "msg-1"},
				{RecipientID: "r2", Address: "bounce@example.com", ErrorKind: domain.ProviderRejected, Error: "provider_rejected: boom"},
				{RecipientID: "r3", Address: "cy@example.com", Success: true, MessageID: "msg-2"},
			},
		},
		{
			name: "unclassified transport error is reported as unknown",
			recipients: []*domain.Recipient{
				{ID: "r1", Email: "ana@example.com"},
			},
			setup: func(repo *fakeOccasionRepo, tr *fakeTransport) {
				tr.failFor["ana@example.com"] = errBoom
			},
			wantStatus: domain.OccasionProcessed,
			wantSent:   []string{"ana@example.com"},
			wantOutcomes: []domain.DispatchOutcome{
				{RecipientID: "r1", Address: "ana@example.com", ErrorKind: domain.UnknownTransport, Error: "boom"},
			},
		},
		{
			name: "bookkeeping failure keeps the success",
			recipients: []*domain.Recipient{
				{ID: "r1", Email: "ana@example.com"},
				{ID: "r2", Email: "ben@example.com"},
			},
			setup: func(repo *fakeOccasionRepo, tr *fakeTransport) {
				repo.markErrs["r1"] = errBoom
			},
			wantStatus: domain.OccasionProcessed,
			wantSent:   []string{"ana@example.com", "ben@example.com"},
			wantMarked: []string{"r1", "r2"},
			wantOutcomes: []domain.DispatchOutcome{
				{RecipientID: "r1", Address: "ana@example.com", Success: true, BookkeepingFailed: true, MessageID: "msg-1", Error: "mark notified: store mark notified: boom"},
				{RecipientID: "r2", Address: "ben@example.com", Success: true, MessageID: "msg-2"},
			},
		},
		{
			name:         "no pending recipients",
			recipients:   nil,
			wantStatus:   domain.OccasionNoRecipients,
			wantOutcomes: []domain.DispatchOutcome{},
		},
		{
			name: "only responded recipients",
			recipients: []*domain.Recipient{
				{ID: "r1", Email: "ana@example.com", ResponseStatus: domain.ResponseResponded},
			},
			wantStatus:   domain.OccasionNoRecipients,
			wantOutcomes: []domain.DispatchOutcome{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeOccasionRepo()
			tr := newFakeTransport()
			occ := repo.addOccasion("occ-1", tt.recipients...)
			if tt.setup != nil {
				tt.setup(repo, tr)
			}
			th := &countingThrottler{}
			d := newTestDispatcher(repo, tr, th, DispatchOptions{Now: func() time.Time { return fixedNow }})

			report, err := d.Dispatch(ctx, occ)
			require.NoError(t, err)
			require.NotNil(t, report)
			assert.Equal(t, "occ-1", report.OccasionID)
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, tt.wantOutcomes, report.Outcomes)
			assert.Equal(t, tt.wantSent, tr.sent)
			assert.Equal(t, len(tt.wantSent), th.calls, "every send is preceded by exactly one throttle wait")

			var marked []string
			for _, c := range repo.markCalls {
				marked = append(marked, c.recipientID)
				assert.Equal(t, fixedNow, c.at)
			}
			assert.Equal(t, tt.wantMarked, marked)
		})
	}
}

func TestRecipientDispatcher_ListRecipientsError(t *testing.T) {
	repo := newFakeOccasionRepo()
	occ := repo.addOccasion("occ-1", &domain.Recipient{ID: "r1", Email: "ana@example.com"})
	repo.recipientErrs["occ-1"] = errBoom
	tr := newFakeTransport()
	d := newTestDispatcher(repo, tr, &countingThrottler{}, DispatchOptions{})

	report, err := d.Dispatch(context.Background(), occ)
	require.Error(t, err)
	assert.Nil(t, report)
	var se *domain.StoreError
	assert.True(t, errors.As(err, &se))
	assert.Empty(t, tr.sent)
}

func TestRecipientDispatcher_SendTimeoutIsProviderUnavailable(t *testing.T) {
	repo := newFakeOccasionRepo()
	occ := repo.addOccasion("occ-1",
		&domain.Recipient{ID: "r1", Email: "ana@example.com"},
		&domain.Recipient{ID: "r2", Email: "ben@example.com"},
	)
	tr := newFakeTransport()
	tr.block = true
	d := newTestDispatcher(repo, tr, &countingThrottler{}, DispatchOptions{SendTimeout: 20 * time.Millisecond})

	report, err := d.Dispatch(context.Background(), occ)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2, "a timed-out send does not stop the occasion")
	for _, o := range report.Outcomes {
		assert.False(t, o.Success)
		assert.Equal(t, domain.ProviderUnavailable, o.ErrorKind)
	}
	assert.Empty(t, repo.markCalls)
}

func TestRecipientDispatcher_ThrottleErrorIsIsolated(t *testing.T) {
	repo := newFakeOccasionRepo()
	occ := repo.addOccasion("occ-1", &domain.Recipient{ID: "r1", Email: "ana@example.com"})
	tr := newFakeTransport()
	d := newTestDispatcher(repo, tr, &countingThrottler{err: context.Canceled}, DispatchOptions{})

	report, err := d.Dispatch(context.Background(), occ)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, domain.ProviderUnavailable, report.Outcomes[0].ErrorKind)
	assert.Empty(t, tr.sent, "no send happens before the throttle wait completes")
}

func TestRecipientDispatcher_Cooldown(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	old := now.Add(-48 * time.Hour)

	repo := newFakeOccasionRepo()
	occ := repo.addOccasion("occ-1",
		&domain.Recipient{ID: "r1", Email: "ana@example.com", LastNotifiedAt: &recent},
		&domain.Recipient{ID: "r2", Email: "ben@example.com", LastNotifiedAt: &old},
		&domain.Recipient{ID: "r3", Email: "cy@example.com"},
	)
	tr := newFakeTransport()
	d := newTestDispatcher(repo, tr, &countingThrottler{}, DispatchOptions{
		Cooldown: time.Hour,
		Now:      func() time.Time { return now },
	})

	report, err := d.Dispatch(context.Background(), occ)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RecipientsSkipped)
	assert.Equal(t, []string{"ben@example.com", "cy@example.com"}, tr.sent)
	require.Len(t, report.Outcomes, 2)
}

func TestRecipientDispatcher_CooldownDisabledRetriesEveryone(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Minute)

	repo := newFakeOccasionRepo()
	occ := repo.addOccasion("occ-1", &domain.Recipient{ID: "r1", Email: "ana@example.com", LastNotifiedAt: &recent})
	tr := newFakeTransport()
	d := newTestDispatcher(repo, tr, &countingThrottler{}, DispatchOptions{Now: func() time.Time { return now }})

	report, err := d.Dispatch(context.Background(), occ)
	require.NoError(t, err)
	assert.Equal(t, 0, report.RecipientsSkipped)
	assert.Equal(t, []string{"ana@example.com"}, tr.sent)
}

func TestRecipientDispatcher_RateLimited(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	const interval = 500 * time.Millisecond
	repo := newFakeOccasionRepo()
	occ := repo.addOccasion("occ-1",
		&domain.Recipient{ID: "r1", Email: "ana@example.com"},
		&domain.Recipient{ID: "r2", Email: "ben@example.com"},
		&domain.Recipient{ID: "r3", Email: "cy@example.com"},
	)
	tr := newFakeTransport()
	d := newTestDispatcher(repo, tr, ratelimit.NewThrottler(interval), DispatchOptions{})

	start := time.Now()
	report, err := d.Dispatch(context.Background(), occ)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	assert.GreaterOrEqual(t, elapsed, 2*interval-time.Millisecond)
	assert.Less(t, elapsed, 2*interval+250*time.Millisecond)
	require.Len(t, tr.sentAt, 3)
	for i := 1; i < len(tr.sentAt); i++ {
		assert.GreaterOrEqual(t, tr.sentAt[i].Sub(tr.sentAt[i-1]), interval-time.Millisecond, "send %d", i)
	}
}
