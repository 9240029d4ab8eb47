package domain

import "time"

// DispatchOutcome is the result of one dispatch attempt. It is not persisted.
// swagger:model DispatchOutcome
type DispatchOutcome struct {
	RecipientID       string             `json:"recipient_id"`
	Address           string             `json:"address"`
	Success           bool               `json:"success"`
	ErrorKind         TransportErrorKind `json:"error_kind,omitempty"`
	Error             string             `json:"error,omitempty"`
	BookkeepingFailed bool               `json:"bookkeeping_failed,omitempty"`
	MessageID         string             `json:"message_id,omitempty"`
}

// ProcessingStatus describes what happened to one occasion during a run.
type ProcessingStatus string

const (
	OccasionProcessed     ProcessingStatus = "processed"
	OccasionNoRecipients  ProcessingStatus = "no_recipients"
	OccasionFailed        ProcessingStatus = "failed"
	OccasionSkippedLocked ProcessingStatus = "skipped_locked"
)

// OccasionReport holds the outcomes for one occasion.
// swagger:model OccasionReport
type OccasionReport struct {
	OccasionID        string            `json:"occasion_id"`
	Status            ProcessingStatus  `json:"status"`
	Error             string            `json:"error,omitempty"`
	RecipientsSkipped int               `json:"recipients_skipped"`
	Outcomes          []DispatchOutcome `json:"outcomes"`
}

// RunReport aggregates one run of the reminder pipeline.
// swagger:model RunReport
type RunReport struct {
	RunID       string    `json:"run_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	OccasionsExamined          int `json:"occasions_examined"`
	OccasionsWithoutRecipients int `json:"occasions_without_recipients"`
	OccasionsFailed            int `json:"occasions_failed"`
	OccasionsSkipped           int `json:"occasions_skipped"`
	RecipientsNotified         int `json:"recipients_notified"`
	RecipientsFailed           int `json:"recipients_failed"`
	RecipientsSkipped          int `json:"recipients_skipped"`

	// Error is set only when the run was aborted.
	Error     string           `json:"error,omitempty"`
	Occasions []OccasionReport `json:"occasions"`
}

// NewRunReport returns an empty report for the given window.
func NewRunReport(runID string, w Window, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:       runID,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		StartedAt:   startedAt,
		Occasions:   []OccasionReport{},
	}
}

// Add folds one occasion report into the totals.
func (r *RunReport) Add(or OccasionReport) {
	if or.Outcomes == nil {
		or.Outcomes = []DispatchOutcome{}
	}
	r.OccasionsExamined++
	switch or.Status {
	case OccasionNoRecipients:
		r.OccasionsWithoutRecipients++
	case OccasionFailed:
		r.OccasionsFailed++
	case OccasionSkippedLocked:
		r.OccasionsSkipped++
	}
	r.RecipientsSkipped += or.RecipientsSkipped
	for _, o := range or.Outcomes {
		if o.Success {
			r.RecipientsNotified++
		} else {
			r.RecipientsFailed++
		}
	}
	r.Occasions = append(r.Occasions, or)
}
