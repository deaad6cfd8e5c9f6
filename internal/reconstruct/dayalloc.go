package reconstruct

import (
	"sort"
	"time"

	"tradejournal/internal/domain"
)

// LocalDay converts a UTC instant to the local calendar day in tz, rolling
// weekend results back to the preceding trading day: Saturday becomes
// Friday, Sunday becomes Friday. Some broker timestamps land just past a
// session boundary into a non-trading day; the roll-back assigns that
// activity to the session it belongs to.
func LocalDay(ts time.Time, tz *time.Location) string {
	local := ts.In(tz)
	y, m, d := local.Date()

	// Anchor date arithmetic at noon UTC so it cannot slip across a DST
	// transition.
	day := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	switch day.Weekday() {
	case time.Saturday:
		day = day.AddDate(0, 0, -1)
	case time.Sunday:
		day = day.AddDate(0, 0, -2)
	}

	return day.Format("2006-01-02")
}

// dayAllocator accumulates realized P&L, commissions and closed shares per
// local calendar day for one trade.
type dayAllocator struct {
	tz      *time.Location
	buckets map[string]*dayBucket
}

type dayBucket struct {
	gross        float64
	commissions  float64
	sharesClosed float64
}

func newDayAllocator(tz *time.Location) *dayAllocator {
	return &dayAllocator{
		tz:      tz,
		buckets: make(map[string]*dayBucket),
	}
}

func (a *dayAllocator) bucket(ts time.Time) *dayBucket {
	day := LocalDay(ts, a.tz)
	b, ok := a.buckets[day]
	if !ok {
		b = &dayBucket{}
		a.buckets[day] = b
	}
	return b
}

// addOpen records opening activity (the commission of an opening fill).
func (a *dayAllocator) addOpen(ts time.Time, commission float64) {
	b := a.bucket(ts)
	b.commissions += commission
}

// addClose records a closing fill's realized P&L, commission and shares.
func (a *dayAllocator) addClose(ts time.Time, gross, commission, shares float64) {
	b := a.bucket(ts)
	b.gross += gross
	b.commissions += commission
	b.sharesClosed += shares
}

// flush emits the TradeDay rows for the trade in date order and resets the
// allocator. Status assignment follows one policy: "closed" on the day the
// trade's final share closes, "opened" on the trade's first day when no
// shares closed that day, "adjusted" for any other day with activity.
func (a *dayAllocator) flush(tradeID string, tradeClosed bool) []*domain.TradeDay {
	if len(a.buckets) == 0 {
		return nil
	}

	days := make([]string, 0, len(a.buckets))
	for day := range a.buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	lastClose := ""
	for _, day := range days {
		if a.buckets[day].sharesClosed > qtyEpsilon {
			lastClose = day
		}
	}

	rows := make([]*domain.TradeDay, 0, len(days))
	for i, day := range days {
		b := a.buckets[day]

		status := domain.DayStatusAdjusted
		switch {
		case tradeClosed && day == lastClose:
			status = domain.DayStatusClosed
		case i == 0 && b.sharesClosed <= qtyEpsilon:
			status = domain.DayStatusOpened
		}

		rows = append(rows, &domain.TradeDay{
			TradeID:       tradeID,
			DayDateLocal:  day,
			DayStatus:     status,
			RealizedGross: b.gross,
			Commissions:   b.commissions,
			RealizedNet:   b.gross + b.commissions,
			SharesClosed:  b.sharesClosed,
		})
	}

	a.buckets = make(map[string]*dayBucket)
	return rows
}
