package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"partyreminders/internal/domain"
)

type reminderService struct {
	repo       domain.OccasionRepository
	dispatcher domain.OccasionDispatcher
	locker     domain.OccasionLocker
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
}

// NewReminderService returns the run orchestrator. locker may be nil, in which case
// occasions are dispatched without a lease.
func NewReminderService(
	repo domain.OccasionRepository,
	dispatcher domain.OccasionDispatcher,
	locker domain.OccasionLocker,
	logger *slog.Logger,
) domain.ReminderService {
	return &reminderService{
		repo:       repo,
		dispatcher: dispatcher,
		locker:     locker,
		logger:     logger,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// Run processes every eligible occasion in window sequentially. Failing to list
// occasions aborts the run; every other failure is recorded in the report.
func (s *reminderService) Run(ctx context.Context, window domain.Window) (*domain.RunReport, error) {
	report := domain.NewRunReport(s.newRunID(), window, s.now())
	log := s.logger.With("run_id", report.RunID)

	if !window.Valid() {
		report.Error = "window end must be after start"
		report.FinishedAt = s.now()
		return report, fmt.Errorf("%w: %s", domain.ErrInvalidInput, report.Error)
	}

	log.InfoContext(ctx, "reminder run started", "window_start", window.Start, "window_end", window.End)

	occasions, err := s.repo.ListInWindow(ctx, window.Start, window.End)
	if err != nil {
		report.Error = err.Error()
		report.FinishedAt = s.now()
		log.ErrorContext(ctx, "reminder run aborted", "err", err)
		return report, fmt.Errorf("list occasions: %w", err)
	}

	for _, occ := range occasions {
		report.Add(s.processOccasion(ctx, log, occ))
	}

	report.FinishedAt = s.now()
	log.InfoContext(ctx, "reminder run finished",
		"occasions", report.OccasionsExamined,
		"notified", report.RecipientsNotified,
		"failed", report.RecipientsFailed,
		"occasions_failed", report.OccasionsFailed,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (s *reminderService) processOccasion(ctx context.Context, log *slog.Logger, occ *domain.Occasion) domain.OccasionReport {
	log = log.With("occasion_id", occ.ID)

	if s.locker != nil {
		lease, ok, err := s.locker.Acquire(ctx, occ.ID)
		switch {
		case err != nil:
			// Best effort: an unreachable lock store does not block reminders.
			log.WarnContext(ctx, "occasion lease unavailable, dispatching without it", "err", err)
		case !ok:
			log.InfoContext(ctx, "occasion leased by another run, skipping")
			return domain.OccasionReport{OccasionID: occ.ID, Status: domain.OccasionSkippedLocked}
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					log.WarnContext(ctx, "release occasion lease", "err", err)
				}
			}()
		}
	}

	or, err := s.dispatcher.Dispatch(ctx, occ)
	if err != nil {
		log.ErrorContext(ctx, "occasion failed", "err", err)
		return domain.OccasionReport{OccasionID: occ.ID, Status: domain.OccasionFailed, Error: err.Error()}
	}
	return *or
}
