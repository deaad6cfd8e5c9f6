package memory

import (
	"context"
	"sort"
	"sync"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
// Trades, links and trade days are replaced together under one lock, so a
// reader never observes a half-rebuilt account.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string]*domain.Trade          // keyed by trade_id
	links  map[string][]*domain.TradeExecutionLink // keyed by trade_id
	days   map[string][]*domain.TradeDay     // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string]*domain.Trade),
		links:  make(map[string][]*domain.TradeExecutionLink),
		days:   make(map[string][]*domain.TradeDay),
	}
}

// ReplaceForAccount deletes all trades, links and days for the account and
// inserts the given rows. All-or-nothing under the store lock.
func (s *TradeStore) ReplaceForAccount(
	_ context.Context,
	accountID string,
	trades []*domain.Trade,
	links []*domain.TradeExecutionLink,
	days []*domain.TradeDay,
) error {
	if accountID == "" {
		return storage.ErrInvalidInput
	}

	// Validate before mutating anything
	newTrades := make(map[string]*domain.Trade, len(trades))
	for _, t := range trades {
		if t == nil || t.ID == "" || t.AccountID != accountID {
			return storage.ErrInvalidInput
		}
		if _, exists := newTrades[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		copy := *t
		newTrades[t.ID] = &copy
	}

	newLinks := make(map[string][]*domain.TradeExecutionLink)
	for _, l := range links {
		if l == nil || l.TradeID == "" || l.ExecutionID == "" {
			return storage.ErrInvalidInput
		}
		if _, ok := newTrades[l.TradeID]; !ok {
			return storage.ErrInvalidInput
		}
		copy := *l
		newLinks[l.TradeID] = append(newLinks[l.TradeID], &copy)
	}

	newDays := make(map[string][]*domain.TradeDay)
	for _, d := range days {
		if d == nil || d.TradeID == "" || d.DayDateLocal == "" {
			return storage.ErrInvalidInput
		}
		if _, ok := newTrades[d.TradeID]; !ok {
			return storage.ErrInvalidInput
		}
		copy := *d
		newDays[d.TradeID] = append(newDays[d.TradeID], &copy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Delete prior rows for the account (cascade)
	for id, t := range s.trades {
		if t.AccountID == accountID {
			delete(s.trades, id)
			delete(s.links, id)
			delete(s.days, id)
		}
	}

	for id, t := range newTrades {
		s.trades[id] = t
		s.links[id] = newLinks[id]
		s.days[id] = newDays[id]
	}

	return nil
}

// GetTradesByAccount retrieves all trades for an account, ordered by
// (opened_at_utc ASC, trade_id ASC).
func (s *TradeStore) GetTradesByAccount(_ context.Context, accountID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.trades {
		if t.AccountID == accountID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OpenedAtUTC.Equal(result[j].OpenedAtUTC) {
			return result[i].OpenedAtUTC.Before(result[j].OpenedAtUTC)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetLinksByTrade retrieves the execution links for a trade.
func (s *TradeStore) GetLinksByTrade(_ context.Context, tradeID string) ([]*domain.TradeExecutionLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeExecutionLink
	for _, l := range s.links[tradeID] {
		copy := *l
		result = append(result, &copy)
	}

	return result, nil
}

// GetDaysByAccount retrieves all trade days for an account, ordered by
// (day_date_local ASC, trade_id ASC).
func (s *TradeStore) GetDaysByAccount(_ context.Context, accountID string) ([]*domain.TradeDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeDay
	for id, t := range s.trades {
		if t.AccountID != accountID {
			continue
		}
		for _, d := range s.days[id] {
			copy := *d
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DayDateLocal != result[j].DayDateLocal {
			return result[i].DayDateLocal < result[j].DayDateLocal
		}
		return result[i].TradeID < result[j].TradeID
	})

	return result, nil
}

// GetDaysByTrade retrieves the trade days for one trade, ordered by
// day_date_local ASC.
func (s *TradeStore) GetDaysByTrade(_ context.Context, tradeID string) ([]*domain.TradeDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeDay
	for _, d := range s.days[tradeID] {
		copy := *d
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DayDateLocal < result[j].DayDateLocal
	})

	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
