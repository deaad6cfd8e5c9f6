package clickhouse

import (
	"context"
	"fmt"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/observability"
	"tradejournal/internal/storage"
)

// dayLayout is the wire format for day keys.
const dayLayout = "2006-01-02"

// DailyPnlStore implements storage.DailyPnlStore using ClickHouse.
//
// The daily_pnl table is a ReplacingMergeTree keyed on (account_id, day), so
// re-inserting a day replaces it once parts merge. Reads use FINAL to collapse
// unmerged duplicates.
type DailyPnlStore struct {
	conn *Conn
}

// NewDailyPnlStore creates a new DailyPnlStore.
func NewDailyPnlStore(conn *Conn) *DailyPnlStore {
	return &DailyPnlStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DailyPnlStore = (*DailyPnlStore)(nil)

// ReplaceForAccount replaces the daily rows for an account.
func (s *DailyPnlStore) ReplaceForAccount(ctx context.Context, accountID string, rows []*domain.DailyPnl) (err error) {
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "replace_daily_pnl", time.Since(start).Seconds(), err)
	}(time.Now())

	if accountID == "" {
		return storage.ErrInvalidInput
	}

	// Validate all rows before touching the table so a bad row cannot leave
	// the account half-replaced.
	days := make([]time.Time, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if r == nil || r.AccountID != accountID {
			return storage.ErrInvalidInput
		}
		d, err := time.Parse(dayLayout, r.Day)
		if err != nil {
			return fmt.Errorf("%w: day %q", storage.ErrInvalidInput, r.Day)
		}
		if _, exists := seen[r.Day]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Day] = struct{}{}
		days[i] = d
	}

	// Lightweight delete clears days that no longer exist after a rebuild;
	// ReplacingMergeTree alone would only overwrite days that are re-inserted.
	err = s.conn.Exec(ctx, `DELETE FROM daily_pnl WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("delete daily pnl: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_pnl (
			account_id, day, gross, commissions, net, trades_active, shares_closed
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, r := range rows {
		err = batch.Append(
			accountID, days[i],
			r.Gross, r.Commissions, r.Net,
			uint32(r.TradesActive), r.SharesClosed,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAccount retrieves all daily rows for an account, ordered by day ASC.
func (s *DailyPnlStore) GetByAccount(ctx context.Context, accountID string) ([]*domain.DailyPnl, error) {
	query := `
		SELECT account_id, day, gross, commissions, net, trades_active, shares_closed
		FROM daily_pnl FINAL
		WHERE account_id = ?
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query daily pnl by account: %w", err)
	}
	defer rows.Close()

	return scanDailyPnl(rows)
}

// GetByDayRange retrieves rows within [start, end] (inclusive), days formatted YYYY-MM-DD.
func (s *DailyPnlStore) GetByDayRange(ctx context.Context, accountID, start, end string) ([]*domain.DailyPnl, error) {
	startDay, err := time.Parse(dayLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%w: start day %q", storage.ErrInvalidInput, start)
	}
	endDay, err := time.Parse(dayLayout, end)
	if err != nil {
		return nil, fmt.Errorf("%w: end day %q", storage.ErrInvalidInput, end)
	}

	query := `
		SELECT account_id, day, gross, commissions, net, trades_active, shares_closed
		FROM daily_pnl FINAL
		WHERE account_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, accountID, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("query daily pnl by day range: %w", err)
	}
	defer rows.Close()

	return scanDailyPnl(rows)
}

// chRows abstracts the driver row iterator for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanDailyPnl(rows chRows) ([]*domain.DailyPnl, error) {
	var result []*domain.DailyPnl

	for rows.Next() {
		var r domain.DailyPnl
		var day time.Time
		var tradesActive uint32

		err := rows.Scan(
			&r.AccountID, &day,
			&r.Gross, &r.Commissions, &r.Net,
			&tradesActive, &r.SharesClosed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily pnl row: %w", err)
		}

		r.Day = day.Format(dayLayout)
		r.TradesActive = int(tradesActive)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily pnl rows: %w", err)
	}

	return result, nil
}
