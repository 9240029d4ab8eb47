package helpers

import (
	"net/http"
	"strings"
	"time"

	"partyreminders/internal/domain"
)

// DateParam is the query parameter that overrides the target day of a run.
const DateParam = "date"

// ParseWindow returns the run window for r. Without a date parameter it is the day
// after now in loc; with one it is that calendar day in loc. A malformed date yields
// an error wrapping domain.ErrInvalidInput.
func ParseWindow(r *http.Request, loc *time.Location, now time.Time) (domain.Window, error) {
	s := strings.TrimSpace(r.URL.Query().Get(DateParam))
	if s == "" {
		return domain.TomorrowWindow(now, loc), nil
	}
	return domain.ParseDayWindow(s, loc)
}
