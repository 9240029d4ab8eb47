package domain

import (
	"context"
	"time"
)

// OccasionStatus is the lifecycle status of an occasion.
type OccasionStatus string

const (
	OccasionActive   OccasionStatus = "active"
	OccasionArchived OccasionStatus = "archived"
)

// Well-known keys of the occasion attribute bag used for personalization.
const (
	AttrHonoreeName = "honoree_name"
	AttrTheme       = "theme"
	AttrVenue       = "venue"
	AttrAge         = "age"
	AttrHostName    = "host_name"
	AttrStartTime   = "start_time"
)

// Occasion represents a scheduled party owned by a user.
// Date is a calendar date without a timezone; only its year, month and day are meaningful.
// swagger:model Occasion
type Occasion struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	Name       string         `json:"name"`
	Date       time.Time      `json:"date"`
	Status     OccasionStatus `json:"status"`
	IsDeleted  bool           `json:"is_deleted"`
	Attributes map[string]any `json:"attributes"`
}

// Eligible reports whether the occasion may receive reminders: active and not soft-deleted.
func (o *Occasion) Eligible() bool {
	return o != nil && o.Status == OccasionActive && !o.IsDeleted
}

// Attr returns the attribute stored under key, or nil.
func (o *Occasion) Attr(key string) any {
	if o == nil || o.Attributes == nil {
		return nil
	}
	return o.Attributes[key]
}

// OccasionRepository is the read/write gateway the reminder pipeline uses.
// Every method reports failures as *StoreError.
type OccasionRepository interface {
	// ListInWindow returns active, non-deleted occasions whose date falls in [start, end).
	ListInWindow(ctx context.Context, start, end time.Time) ([]*Occasion, error)
	// ListPendingRecipients returns the recipients of occasionID that have not responded.
	ListPendingRecipients(ctx context.Context, occasionID string) ([]*Recipient, error)
	// MarkNotified records a successful send. The stored timestamp never moves backwards.
	MarkNotified(ctx context.Context, recipientID string, at time.Time) error
}
