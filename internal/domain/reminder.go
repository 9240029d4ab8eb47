package domain

import "context"

// OccasionDispatcher sends reminders to every pending recipient of one occasion.
// It returns an error only when the recipient list cannot be loaded.
type OccasionDispatcher interface {
	Dispatch(ctx context.Context, occasion *Occasion) (*OccasionReport, error)
}

// ReminderService runs one reminder pass over a window.
// A non-nil error means the run was aborted; the returned report is still populated.
type ReminderService interface {
	Run(ctx context.Context, window Window) (*RunReport, error)
}
