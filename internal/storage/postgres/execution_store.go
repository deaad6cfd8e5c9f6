package postgres

import (
	"context"
	"fmt"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// ExecutionStore implements storage.ExecutionStore using PostgreSQL.
type ExecutionStore struct {
	pool *Pool
}

// NewExecutionStore creates a new ExecutionStore.
func NewExecutionStore(pool *Pool) *ExecutionStore {
	return &ExecutionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExecutionStore = (*ExecutionStore)(nil)

// Insert adds a new execution. Returns ErrDuplicateKey if
// (account_id, execution_id) exists.
func (s *ExecutionStore) Insert(ctx context.Context, e *domain.Execution) error {
	query := `
		INSERT INTO executions (
			id, account_id, execution_id, symbol, conid,
			ts_utc, ts_raw, side, quantity, price, commission,
			exchange, order_type, currency
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14
		)
	`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.AccountID, e.ExecutionID, e.Symbol, e.ConID,
		e.TsUTC, e.TsRaw, e.Side, e.Quantity, e.Price, e.Commission,
		e.Exchange, e.OrderType, e.Currency,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetByAccount retrieves all executions for an account, ordered by
// (ts_utc ASC, execution_id ASC).
func (s *ExecutionStore) GetByAccount(ctx context.Context, accountID string) ([]*domain.Execution, error) {
	query := `
		SELECT
			id, account_id, execution_id, symbol, conid,
			ts_utc, ts_raw, side, quantity, price, commission,
			exchange, order_type, currency
		FROM executions
		WHERE account_id = $1
		ORDER BY ts_utc ASC, execution_id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get executions by account: %w", err)
	}
	defer rows.Close()

	var executions []*domain.Execution
	for rows.Next() {
		e := &domain.Execution{}
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.ExecutionID, &e.Symbol, &e.ConID,
			&e.TsUTC, &e.TsRaw, &e.Side, &e.Quantity, &e.Price, &e.Commission,
			&e.Exchange, &e.OrderType, &e.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return executions, nil
}

// ListExecutionIDs returns the broker execution ids already stored for
// an account.
func (s *ExecutionStore) ListExecutionIDs(ctx context.Context, accountID string) ([]string, error) {
	query := `
		SELECT execution_id
		FROM executions
		WHERE account_id = $1
		ORDER BY execution_id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list execution ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan execution id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution ids: %w", err)
	}
	return ids, nil
}
