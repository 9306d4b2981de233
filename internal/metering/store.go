package metering

import (
	"context"
	"sync"
)

// Usage is the persisted metering state of one account.
type Usage struct {
	Account string `json:"account"`

	// Plan is the plan ID. Empty means the Meter's default plan.
	Plan string `json:"plan"`

	// Period is the month the Used counter belongs to, formatted "2006-01".
	Period string `json:"period"`

	Used int `json:"used"`
}

// Store persists Usage records.
//
// Update loads the record for account (a zero Usage with Account set when
// none exists), passes it to fn and saves the modified record. Updates to the
// same account must not interleave. If fn returns an error nothing is saved
// and that error is returned unchanged.
type Store interface {
	Update(ctx context.Context, account string, fn func(*Usage) error) (Usage, error)
}

// MemoryStore keeps usage in process memory. It is the default store for the
// CLI and for tests; state is lost on exit.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Usage
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Usage)}
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, account string, fn func(*Usage) error) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.records[account]
	if !ok {
		u = Usage{Account: account}
	}
	if err := fn(&u); err != nil {
		return Usage{}, err
	}
	s.records[account] = u
	return u, nil
}
