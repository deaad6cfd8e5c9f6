package postgres

import (
	"context"
	"fmt"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Insert adds a new account. Returns ErrDuplicateKey if the id or the
// account number already exists.
func (s *AccountStore) Insert(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, currency, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, a.ID, a.AccountNumber, a.Currency, a.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its surrogate id. Returns ErrNotFound
// if not exists.
func (s *AccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, account_number, currency, created_at
		FROM accounts
		WHERE id = $1
	`

	a := &domain.Account{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.AccountNumber, &a.Currency, &a.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// GetByNumber retrieves an account by its broker account number.
// Returns ErrNotFound if not exists.
func (s *AccountStore) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `
		SELECT id, account_number, currency, created_at
		FROM accounts
		WHERE account_number = $1
	`

	a := &domain.Account{}
	err := s.pool.QueryRow(ctx, query, accountNumber).Scan(&a.ID, &a.AccountNumber, &a.Currency, &a.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account by number: %w", err)
	}
	return a, nil
}

// GetAll retrieves all accounts, ordered by account number ASC.
func (s *AccountStore) GetAll(ctx context.Context) ([]*domain.Account, error) {
	query := `
		SELECT id, account_number, currency, created_at
		FROM accounts
		ORDER BY account_number ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a := &domain.Account{}
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.Currency, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}
