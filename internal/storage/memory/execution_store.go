package memory

import (
	"context"
	"sort"
	"sync"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// ExecutionStore is an in-memory implementation of storage.ExecutionStore.
type ExecutionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Execution // keyed by surrogate id
	keys map[executionKey]struct{}    // uniqueness on (account_id, execution_id)
}

type executionKey struct {
	accountID   string
	executionID string
}

// NewExecutionStore creates a new in-memory execution store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		data: make(map[string]*domain.Execution),
		keys: make(map[executionKey]struct{}),
	}
}

// Insert adds a new execution. Returns ErrDuplicateKey if
// (account_id, execution_id) exists.
func (s *ExecutionStore) Insert(_ context.Context, e *domain.Execution) error {
	if e == nil || e.ID == "" || e.AccountID == "" || e.ExecutionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := executionKey{e.AccountID, e.ExecutionID}
	if _, exists := s.keys[k]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.data[e.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[e.ID] = &copy
	s.keys[k] = struct{}{}
	return nil
}

// GetByAccount retrieves all executions for an account, ordered by
// (ts_utc ASC, execution_id ASC).
func (s *ExecutionStore) GetByAccount(_ context.Context, accountID string) ([]*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Execution
	for _, e := range s.data {
		if e.AccountID == accountID {
			copy := *e
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].TsUTC.Equal(result[j].TsUTC) {
			return result[i].TsUTC.Before(result[j].TsUTC)
		}
		return result[i].ExecutionID < result[j].ExecutionID
	})

	return result, nil
}

// ListExecutionIDs returns the broker execution ids stored for an account.
func (s *ExecutionStore) ListExecutionIDs(_ context.Context, accountID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, e := range s.data {
		if e.AccountID == accountID {
			ids = append(ids, e.ExecutionID)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

var _ storage.ExecutionStore = (*ExecutionStore)(nil)
