package storage

import (
	"context"

	"tradejournal/internal/domain"
)

// AccountStore provides access to accounts storage.
type AccountStore interface {
	// Insert adds a new account. Returns ErrDuplicateKey if the id or the
	// account number already exists.
	Insert(ctx context.Context, a *domain.Account) error

	// GetByID retrieves an account by its surrogate id. Returns ErrNotFound
	// if not exists.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByNumber retrieves an account by its broker account number.
	// Returns ErrNotFound if not exists.
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// GetAll retrieves all accounts, ordered by account number ASC.
	GetAll(ctx context.Context) ([]*domain.Account, error)
}

// ExecutionStore provides access to executions storage.
type ExecutionStore interface {
	// Insert adds a new execution. Returns ErrDuplicateKey if
	// (account_id, execution_id) exists.
	Insert(ctx context.Context, e *domain.Execution) error

	// GetByAccount retrieves all executions for an account, ordered by
	// (ts_utc ASC, execution_id ASC). The tie-break on the broker id makes
	// the ordering deterministic when fills share a timestamp.
	GetByAccount(ctx context.Context, accountID string) ([]*domain.Execution, error)

	// ListExecutionIDs returns the broker execution ids already stored for
	// an account (for import-time duplicate detection).
	ListExecutionIDs(ctx context.Context, accountID string) ([]string, error)
}

// TradeStore provides access to trades, their execution links and their
// per-day P&L rows. The three collections are owned together: a
// reconstruction run replaces all of them for one account atomically.
type TradeStore interface {
	// ReplaceForAccount deletes every trade, link and trade day belonging to
	// the account and inserts the given rows in a single transaction. On
	// error no partial state is left behind.
	ReplaceForAccount(
		ctx context.Context,
		accountID string,
		trades []*domain.Trade,
		links []*domain.TradeExecutionLink,
		days []*domain.TradeDay,
	) error

	// GetTradesByAccount retrieves all trades for an account, ordered by
	// (opened_at_utc ASC, trade_id ASC).
	GetTradesByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error)

	// GetLinksByTrade retrieves the execution links for a trade.
	GetLinksByTrade(ctx context.Context, tradeID string) ([]*domain.TradeExecutionLink, error)

	// GetDaysByAccount retrieves all trade days for an account, ordered by
	// (day_date_local ASC, trade_id ASC).
	GetDaysByAccount(ctx context.Context, accountID string) ([]*domain.TradeDay, error)

	// GetDaysByTrade retrieves the trade days for one trade, ordered by
	// day_date_local ASC.
	GetDaysByTrade(ctx context.Context, tradeID string) ([]*domain.TradeDay, error)
}

// DailyPnlStore provides access to the account-level daily P&L timeseries
// used for equity-curve queries.
type DailyPnlStore interface {
	// ReplaceForAccount replaces the daily rows for an account.
	ReplaceForAccount(ctx context.Context, accountID string, rows []*domain.DailyPnl) error

	// GetByAccount retrieves all daily rows for an account, ordered by day ASC.
	GetByAccount(ctx context.Context, accountID string) ([]*domain.DailyPnl, error)

	// GetByDayRange retrieves rows within [start, end] (inclusive),
	// days formatted YYYY-MM-DD.
	GetByDayRange(ctx context.Context, accountID, start, end string) ([]*domain.DailyPnl, error)
}
