package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tradejournal/internal/domain"
	"tradejournal/internal/observability"
	"tradejournal/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. Trades, links
// and trade days are derived rows owned together; ReplaceForAccount
// rebuilds all three in one transaction.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// ReplaceForAccount deletes every trade, link and trade day belonging to
// the account and inserts the given rows in a single transaction. Links
// and days cascade from the trade delete.
func (s *TradeStore) ReplaceForAccount(
	ctx context.Context,
	accountID string,
	trades []*domain.Trade,
	links []*domain.TradeExecutionLink,
	days []*domain.TradeDay,
) (err error) {
	defer func(start time.Time) {
		observability.RecordDBQuery("postgres", "replace_trades_for_account", time.Since(start).Seconds(), err)
	}(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM trades WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("delete trades: %w", err)
	}

	tradeQuery := `
		INSERT INTO trades (
			id, account_id, symbol, conid, instrument_key,
			direction, status, opened_at_utc, closed_at_utc,
			quantity_opened, quantity_closed, avg_entry_price, avg_exit_price,
			gross_pnl_total, commission_total, net_pnl_total
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16
		)
	`
	for _, t := range trades {
		_, err := tx.Exec(ctx, tradeQuery,
			t.ID, t.AccountID, t.Symbol, t.ConID, t.InstrumentKey,
			t.Direction, t.Status, t.OpenedAtUTC, t.ClosedAtUTC,
			t.QuantityOpened, t.QuantityClosed, t.AvgEntryPrice, t.AvgExitPrice,
			t.GrossPnlTotal, t.CommissionTotal, t.NetPnlTotal,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %s: %w", t.ID, err)
		}
	}

	linkQuery := `
		INSERT INTO trade_execution_links (trade_id, execution_id, signed_qty, role)
		VALUES ($1, $2, $3, $4)
	`
	for _, l := range links {
		_, err := tx.Exec(ctx, linkQuery, l.TradeID, l.ExecutionID, l.SignedQty, l.Role)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade link %s/%s: %w", l.TradeID, l.ExecutionID, err)
		}
	}

	dayQuery := `
		INSERT INTO trade_days (
			trade_id, day_date_local, day_status,
			realized_gross, commissions, realized_net, shares_closed
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, d := range days {
		_, err := tx.Exec(ctx, dayQuery,
			d.TradeID, d.DayDateLocal, d.DayStatus,
			d.RealizedGross, d.Commissions, d.RealizedNet, d.SharesClosed,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade day %s/%s: %w", d.TradeID, d.DayDateLocal, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetTradesByAccount retrieves all trades for an account, ordered by
// (opened_at_utc ASC, trade_id ASC).
func (s *TradeStore) GetTradesByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	query := `
		SELECT
			id, account_id, symbol, conid, instrument_key,
			direction, status, opened_at_utc, closed_at_utc,
			quantity_opened, quantity_closed, avg_entry_price, avg_exit_price,
			gross_pnl_total, commission_total, net_pnl_total
		FROM trades
		WHERE account_id = $1
		ORDER BY opened_at_utc ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get trades by account: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t := &domain.Trade{}
		err := rows.Scan(
			&t.ID, &t.AccountID, &t.Symbol, &t.ConID, &t.InstrumentKey,
			&t.Direction, &t.Status, &t.OpenedAtUTC, &t.ClosedAtUTC,
			&t.QuantityOpened, &t.QuantityClosed, &t.AvgEntryPrice, &t.AvgExitPrice,
			&t.GrossPnlTotal, &t.CommissionTotal, &t.NetPnlTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

// GetLinksByTrade retrieves the execution links for a trade.
func (s *TradeStore) GetLinksByTrade(ctx context.Context, tradeID string) ([]*domain.TradeExecutionLink, error) {
	query := `
		SELECT trade_id, execution_id, signed_qty, role
		FROM trade_execution_links
		WHERE trade_id = $1
		ORDER BY execution_id ASC, role ASC
	`

	rows, err := s.pool.Query(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get links by trade: %w", err)
	}
	defer rows.Close()

	var links []*domain.TradeExecutionLink
	for rows.Next() {
		l := &domain.TradeExecutionLink{}
		if err := rows.Scan(&l.TradeID, &l.ExecutionID, &l.SignedQty, &l.Role); err != nil {
			return nil, fmt.Errorf("scan trade link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade links: %w", err)
	}
	return links, nil
}

// GetDaysByAccount retrieves all trade days for an account, ordered by
// (day_date_local ASC, trade_id ASC).
func (s *TradeStore) GetDaysByAccount(ctx context.Context, accountID string) ([]*domain.TradeDay, error) {
	query := `
		SELECT d.trade_id, d.day_date_local, d.day_status,
			d.realized_gross, d.commissions, d.realized_net, d.shares_closed
		FROM trade_days d
		JOIN trades t ON t.id = d.trade_id
		WHERE t.account_id = $1
		ORDER BY d.day_date_local ASC, d.trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get days by account: %w", err)
	}
	defer rows.Close()

	return scanTradeDays(rows)
}

// GetDaysByTrade retrieves the trade days for one trade, ordered by
// day_date_local ASC.
func (s *TradeStore) GetDaysByTrade(ctx context.Context, tradeID string) ([]*domain.TradeDay, error) {
	query := `
		SELECT trade_id, day_date_local, day_status,
			realized_gross, commissions, realized_net, shares_closed
		FROM trade_days
		WHERE trade_id = $1
		ORDER BY day_date_local ASC
	`

	rows, err := s.pool.Query(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get days by trade: %w", err)
	}
	defer rows.Close()

	return scanTradeDays(rows)
}

func scanTradeDays(rows pgx.Rows) ([]*domain.TradeDay, error) {
	var days []*domain.TradeDay
	for rows.Next() {
		d := &domain.TradeDay{}
		err := rows.Scan(
			&d.TradeID, &d.DayDateLocal, &d.DayStatus,
			&d.RealizedGross, &d.Commissions, &d.RealizedNet, &d.SharesClosed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade days: %w", err)
	}
	return days, nil
}
