package memory

import (
	"context"
	"sort"
	"sync"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// DailyPnlStore is an in-memory implementation of storage.DailyPnlStore.
type DailyPnlStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.DailyPnl // keyed by account_id, sorted by day
}

// NewDailyPnlStore creates a new in-memory daily P&L store.
func NewDailyPnlStore() *DailyPnlStore {
	return &DailyPnlStore{
		data: make(map[string][]*domain.DailyPnl),
	}
}

// ReplaceForAccount replaces the daily rows for an account.
func (s *DailyPnlStore) ReplaceForAccount(_ context.Context, accountID string, rows []*domain.DailyPnl) error {
	if accountID == "" {
		return storage.ErrInvalidInput
	}

	copied := make([]*domain.DailyPnl, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.Day == "" || r.AccountID != accountID {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Day]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Day] = struct{}{}
		copy := *r
		copied = append(copied, &copy)
	}

	sort.Slice(copied, func(i, j int) bool {
		return copied[i].Day < copied[j].Day
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[accountID] = copied
	return nil
}

// GetByAccount retrieves all daily rows for an account, ordered by day ASC.
func (s *DailyPnlStore) GetByAccount(_ context.Context, accountID string) ([]*domain.DailyPnl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyPnl
	for _, r := range s.data[accountID] {
		copy := *r
		result = append(result, &copy)
	}

	return result, nil
}

// GetByDayRange retrieves rows within [start, end] (inclusive).
func (s *DailyPnlStore) GetByDayRange(_ context.Context, accountID, start, end string) ([]*domain.DailyPnl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyPnl
	for _, r := range s.data[accountID] {
		if r.Day >= start && r.Day <= end {
			copy := *r
			result = append(result, &copy)
		}
	}

	return result, nil
}

var _ storage.DailyPnlStore = (*DailyPnlStore)(nil)
