package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sync"
	"time"

	"partyreminders/internal/domain"
)

// Store is an in-process OccasionRepository used for local runs and tests.
// Returned entities are copies; callers cannot mutate the store through them.
type Store struct {
	mu sync.RWMutex

	occasions  []*domain.Occasion
	recipients []*domain.Recipient
	byID       map[string]*domain.Recipient
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*domain.Recipient)}
}

// Seed is the JSON layout accepted by LoadSeedFile.
type Seed struct {
	Occasions  []*domain.Occasion  `json:"occasions"`
	Recipients []*domain.Recipient `json:"recipients"`
}

// LoadSeedFile builds a store from a JSON seed file.
func LoadSeedFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	s := NewStore()
	for _, o := range seed.Occasions {
		s.AddOccasion(o)
	}
	for _, r := range seed.Recipients {
		s.AddRecipient(r)
	}
	return s, nil
}

func (s *Store) AddOccasion(o *domain.Occasion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.occasions = append(s.occasions, copyOccasion(o))
}

func (s *Store) AddRecipient(r *domain.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.recipients = append(s.recipients, &cp)
	s.byID[cp.ID] = &cp
}

// Recipient returns a copy of the stored recipient.
func (s *Store) Recipient(id string) (*domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRecipient(r), nil
}

func (s *Store) ListInWindow(_ context.Context, start, end time.Time) ([]*domain.Occasion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from := start.Format(domain.DateLayout)
	to := end.Format(domain.DateLayout)
	out := make([]*domain.Occasion, 0)
	for _, o := range s.occasions {
		day := o.Date.Format(domain.DateLayout)
		if day < from || day >= to || !o.Eligible() {
			continue
		}
		out = append(out, copyOccasion(o))
	}
	return out, nil
}

func (s *Store) ListPendingRecipients(_ context.Context, occasionID string) ([]*domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Recipient, 0)
	for _, r := range s.recipients {
		if r.OccasionID == occasionID && r.Pending() {
			out = append(out, copyRecipient(r))
		}
	}
	return out, nil
}

func (s *Store) MarkNotified(_ context.Context, recipientID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[recipientID]
	if !ok {
		return domain.NewStoreError("mark notified", fmt.Errorf("recipient %s: %w", recipientID, domain.ErrNotFound))
	}
	if !r.Pending() {
		return nil
	}
	if r.LastNotifiedAt == nil || at.After(*r.LastNotifiedAt) {
		t := at
		r.LastNotifiedAt = &t
	}
	return nil
}

func copyOccasion(o *domain.Occasion) *domain.Occasion {
	cp := *o
	cp.Attributes = maps.Clone(o.Attributes)
	return &cp
}

func copyRecipient(r *domain.Recipient) *domain.Recipient {
	cp := *r
	if r.LastNotifiedAt != nil {
		t := *r.LastNotifiedAt
		cp.LastNotifiedAt = &t
	}
	return &cp
}
