package domain

import (
	"strings"
	"time"
)

// ResponseStatus is a recipient's RSVP state.
type ResponseStatus string

const (
	ResponsePending   ResponseStatus = "pending"
	ResponseResponded ResponseStatus = "responded"
	ResponseDeclined  ResponseStatus = "declined"
)

// Recipient is a person invited to one occasion.
// swagger:model Recipient
type Recipient struct {
	ID             string         `json:"id"`
	OccasionID     string         `json:"occasion_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	ResponseStatus ResponseStatus `json:"response_status"`
	LastNotifiedAt *time.Time     `json:"last_notified_at,omitempty"`
}

// Pending reports whether the recipient still owes a response.
func (r *Recipient) Pending() bool {
	return r != nil && r.ResponseStatus == ResponsePending
}

// Address returns the trimmed contact address.
func (r *Recipient) Address() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Email)
}

// NotifiedWithin reports whether the recipient was notified less than d before now.
func (r *Recipient) NotifiedWithin(d time.Duration, now time.Time) bool {
	if r == nil || r.LastNotifiedAt == nil || d <= 0 {
		return false
	}
	return now.Sub(*r.LastNotifiedAt) < d
}

// RedactAddress masks the local part of an email address for logging.
// "jane@example.com" becomes "j***@example.com".
func RedactAddress(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		if addr == "" {
			return ""
		}
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
