package domain

import (
	"context"
	"time"
)

// RenderedNotification is the personalized content for one recipient.
type RenderedNotification struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// NotificationRenderer fills occasion and recipient attributes into a notification.
// Render must not fail and must be deterministic for identical inputs.
type NotificationRenderer interface {
	Render(occasion *Occasion, recipient *Recipient) RenderedNotification
}

// DeliveryReceipt is what a transport returns for an accepted message.
type DeliveryReceipt struct {
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// Transport delivers one notification to one address (infrastructure port).
// It makes exactly one attempt and reports failures as *TransportError.
type Transport interface {
	Send(ctx context.Context, to string, msg RenderedNotification) (*DeliveryReceipt, error)
}

// Throttler paces consecutive transport calls.
// Throttle only returns an error when ctx is done.
type Throttler interface {
	Throttle(ctx context.Context) error
}

// Lease is a held per-occasion lock.
type Lease interface {
	Release(ctx context.Context) error
}

// OccasionLocker guards an occasion against concurrent dispatch by overlapping runs.
// Acquire returns ok=false when another run holds the lease.
type OccasionLocker interface {
	Acquire(ctx context.Context, occasionID string) (lease Lease, ok bool, err error)
}
