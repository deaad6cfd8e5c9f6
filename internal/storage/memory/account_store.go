package memory

import (
	"context"
	"sort"
	"sync"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	data     map[string]*domain.Account // keyed by id
	byNumber map[string]string          // account number -> id
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data:     make(map[string]*domain.Account),
		byNumber: make(map[string]string),
	}
}

// Insert adds a new account. Returns ErrDuplicateKey if the id or the
// account number already exists.
func (s *AccountStore) Insert(_ context.Context, a *domain.Account) error {
	if a == nil || a.ID == "" || a.AccountNumber == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byNumber[a.AccountNumber]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[a.ID] = &copy
	s.byNumber[a.AccountNumber] = a.ID
	return nil
}

// GetByID retrieves an account by id. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *a
	return &copy, nil
}

// GetByNumber retrieves an account by its broker account number.
func (s *AccountStore) GetByNumber(_ context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byNumber[accountNumber]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *s.data[id]
	return &copy, nil
}

// GetAll retrieves all accounts, ordered by account number ASC.
func (s *AccountStore) GetAll(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Account
	for _, a := range s.data {
		copy := *a
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountNumber < result[j].AccountNumber
	})

	return result, nil
}

var _ storage.AccountStore = (*AccountStore)(nil)
