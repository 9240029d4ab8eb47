package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"partyreminders/internal/domain"
)

// Tables read by this repository:
//
//	occasions(id, owner_id, name, event_date DATE, status, is_deleted, attributes JSONB)
//	invitations(id, occasion_id, guest_name, email, response_status, last_notified_at TIMESTAMPTZ NULL)
type occasionRepository struct {
	DB *sql.DB
}

func NewOccasionRepository(db *sql.DB) domain.OccasionRepository {
	return &occasionRepository{
		DB: db,
	}
}

func (r *occasionRepository) ListInWindow(ctx context.Context, start, end time.Time) ([]*domain.Occasion, error) {
	query := `
		SELECT id, owner_id, name, event_date, status, is_deleted, attributes
		FROM occasions
		WHERE event_date >= $1::date AND event_date < $2::date
		  AND status = $3 AND is_deleted = FALSE
	`
	rows, err := r.DB.QueryContext(ctx, query,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout), string(domain.OccasionActive))
	if err != nil {
		return nil, domain.NewStoreError("list occasions", err)
	}
	defer rows.Close()

	occasions := make([]*domain.Occasion, 0)
	for rows.Next() {
		o := &domain.Occasion{}
		var status string
		var attrs []byte
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.Name, &o.Date, &status, &o.IsDeleted, &attrs); err != nil {
			return nil, domain.NewStoreError("list occasions", err)
		}
		o.Status = domain.OccasionStatus(status)
		o.Attributes, err = decodeAttributes(attrs)
		if err != nil {
			return nil, domain.NewStoreError("list occasions", fmt.Errorf("occasion %s: %w", o.ID, err))
		}
		occasions = append(occasions, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("list occasions", err)
	}
	return occasions, nil
}

func (r *occasionRepository) ListPendingRecipients(ctx context.Context, occasionID string) ([]*domain.Recipient, error) {
	query := `
		SELECT id, occasion_id, guest_name, email, response_status, last_notified_at
		FROM invitations
		WHERE occasion_id = $1 AND response_status = $2
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query, occasionID, string(domain.ResponsePending))
	if err != nil {
		return nil, domain.NewStoreError("list pending recipients", err)
	}
	defer rows.Close()

	recipients := make([]*domain.Recipient, 0)
	for rows.Next() {
		rc := &domain.Recipient{}
		var name, email sql.NullString
		var status string
		var notified sql.NullTime
		if err := rows.Scan(&rc.ID, &rc.OccasionID, &name, &email, &status, &notified); err != nil {
			return nil, domain.NewStoreError("list pending recipients", err)
		}
		rc.Name = name.String
		rc.Email = email.String
		rc.ResponseStatus = domain.ResponseStatus(status)
		if notified.Valid {
			rc.LastNotifiedAt = &notified.Time
		}
		recipients = append(recipients, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("list pending recipients", err)
	}
	return recipients, nil
}

// MarkNotified only moves last_notified_at forward and only while the invitation is
// still pending. Zero affected rows means the guest answered mid-run and is not an error.
func (r *occasionRepository) MarkNotified(ctx context.Context, recipientID string, at time.Time) error {
	query := `
		UPDATE invitations
		SET last_notified_at = GREATEST(COALESCE(last_notified_at, $2), $2)
		WHERE id = $1 AND response_status = $3
	`
	if _, err := r.DB.ExecContext(ctx, query, recipientID, at, string(domain.ResponsePending)); err != nil {
		return domain.NewStoreError("mark notified", err)
	}
	return nil
}

func decodeAttributes(raw []byte) (map[string]any, error) {
	attrs := map[string]any{}
	if len(raw) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	return attrs, nil
}
