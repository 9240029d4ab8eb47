package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"partyreminders/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// DefaultSendTimeout bounds a single transport call when none is configured.
const DefaultSendTimeout = 10 * time.Second

// DispatchOptions tunes a RecipientDispatcher.
type DispatchOptions struct {
	// SendTimeout bounds each transport call. Zero means DefaultSendTimeout.
	SendTimeout time.Duration
	// Cooldown skips recipients notified less than Cooldown ago. Zero disables it.
	Cooldown time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

type recipientDispatcher struct {
	repo        domain.OccasionRepository
	renderer    domain.NotificationRenderer
	throttler   domain.Throttler
	transport   domain.Transport
	logger      *slog.Logger
	sendTimeout time.Duration
	cooldown    time.Duration
	now         func() time.Time
}

// NewRecipientDispatcher returns an OccasionDispatcher that notifies recipients
// one at a time, pacing every send through throttler.
func NewRecipientDispatcher(
	repo domain.OccasionRepository,
	renderer domain.NotificationRenderer,
	throttler domain.Throttler,
	transport domain.Transport,
	logger *slog.Logger,
	opts DispatchOptions,
) domain.OccasionDispatcher {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &recipientDispatcher{
		repo:        repo,
		renderer:    renderer,
		throttler:   throttler,
		transport:   transport,
		logger:      logger,
		sendTimeout: opts.SendTimeout,
		cooldown:    opts.Cooldown,
		now:         opts.Now,
	}
}

// Dispatch notifies every pending recipient of occasion. Per-recipient failures are
// recorded in the report; only a failure to load recipients is returned as an error.
func (d *recipientDispatcher) Dispatch(ctx context.Context, occasion *domain.Occasion) (*domain.OccasionReport, error) {
	report := &domain.OccasionReport{
		OccasionID: occasion.ID,
		Status:     domain.OccasionProcessed,
		Outcomes:   []domain.DispatchOutcome{},
	}

	recipients, err := d.repo.ListPendingRecipients(ctx, occasion.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipients for occasion %s: %w", occasion.ID, err)
	}
	if len(recipients) == 0 {
		report.Status = domain.OccasionNoRecipients
		return report, nil
	}

	for _, rc := range recipients {
		if !rc.Pending() {
			continue
		}
		if rc.NotifiedWithin(d.cooldown, d.now()) {
			report.RecipientsSkipped++
			d.logger.DebugContext(ctx, "recipient in cool-down, skipping",
				"occasion_id", occasion.ID, "recipient_id", rc.ID)
			continue
		}
		report.Outcomes = append(report.Outcomes, d.dispatchOne(ctx, occasion, rc))
	}
	if len(report.Outcomes) == 0 && report.RecipientsSkipped == 0 {
		report.Status = domain.OccasionNoRecipients
	}
	return report, nil
}

func (d *recipientDispatcher) dispatchOne(ctx context.Context, occasion *domain.Occasion, rc *domain.Recipient) domain.DispatchOutcome {
	addr := rc.Address()
	outcome := domain.DispatchOutcome{RecipientID: rc.ID, Address: addr}
	log := d.logger.With("occasion_id", occasion.ID, "recipient_id", rc.ID, "to", domain.RedactAddress(addr))

	if addr == "" || !emailRegex.MatchString(addr) {
		outcome.ErrorKind = domain.InvalidAddress
		outcome.Error = "missing or malformed contact address"
		log.WarnContext(ctx, "skipping recipient with invalid address")
		return outcome
	}

	msg := d.renderer.Render(occasion, rc)

	if err := d.throttler.Throttle(ctx); err != nil {
		outcome.ErrorKind = domain.ProviderUnavailable
		outcome.Error = fmt.Sprintf("throttle: %v", err)
		log.WarnContext(ctx, "throttle wait aborted", "err", err)
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	receipt, err := d.transport.Send(sendCtx, addr, msg)
	timedOut := errors.Is(sendCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		outcome.ErrorKind = domain.TransportKindOf(err)
		if timedOut {
			outcome.ErrorKind = domain.ProviderUnavailable
		}
		outcome.Error = err.Error()
		log.WarnContext(ctx, "send failed", "kind", outcome.ErrorKind, "err", err)
		return outcome
	}

	outcome.Success = true
	if receipt != nil {
		outcome.MessageID = receipt.MessageID
	}
	if err := d.repo.MarkNotified(ctx, rc.ID, d.now()); err != nil {
		outcome.BookkeepingFailed = true
		outcome.Error = fmt.Sprintf("mark notified: %v", err)
		log.ErrorContext(ctx, "notification sent but mark notified failed", "err", err)
		return outcome
	}
	log.InfoContext(ctx, "reminder sent", "message_id", outcome.MessageID)
	return outcome
}
