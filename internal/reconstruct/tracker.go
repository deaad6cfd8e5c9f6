package reconstruct

import (
	"fmt"
	"math"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/idhash"
)

// transition classifies the effect of one execution on the current position.
type transition int

const (
	transitionOpen         transition = iota // FLAT → LONG/SHORT
	transitionAdd                            // same-direction addition
	transitionPartialClose                   // reduces |position| without reaching zero
	transitionFullClose                      // reduces |position| exactly to zero
	transitionFlip                           // crosses zero: full close plus opposite open
)

// positionTracker folds time-ordered executions for one instrument into
// finalized trades, execution links and per-day P&L rows. It owns the lot
// ledger and must be fed strictly sequentially.
type positionTracker struct {
	accountID     string
	instrumentKey string
	symbol        string
	conID         *int64
	tz            *time.Location

	signedQty float64 // positive = long, negative = short, zero = flat
	lots      lotQueue
	trade     *domain.Trade // current open trade, nil when flat
	days      *dayAllocator
	sequence  int // trades opened so far on this instrument

	trades []*domain.Trade
	links  []*domain.TradeExecutionLink
	out    []*domain.TradeDay
}

func newPositionTracker(accountID, instrumentKey, symbol string, conID *int64, tz *time.Location) *positionTracker {
	return &positionTracker{
		accountID:     accountID,
		instrumentKey: instrumentKey,
		symbol:        symbol,
		conID:         conID,
		tz:            tz,
		days:          newDayAllocator(tz),
	}
}

// apply processes one execution, mutating the position and emitting rows.
func (p *positionTracker) apply(exe *domain.Execution) error {
	signed := exe.SignedQuantity()

	switch p.classify(signed) {
	case transitionOpen:
		p.open(exe, signed, exe.Commission)
		return p.checkInvariants(exe)

	case transitionAdd:
		p.add(exe, signed)
		return p.checkInvariants(exe)

	case transitionPartialClose:
		return p.closePortion(exe, exe.Quantity, exe.Commission)

	case transitionFullClose:
		// The position total can carry float residue from partial matching;
		// close the execution's own quantity when it is the smaller of the
		// two so SharesClosed tracks the fill exactly.
		if err := p.closePortion(exe, math.Min(math.Abs(p.signedQty), exe.Quantity), exe.Commission); err != nil {
			return err
		}
		p.finalize(exe.TsUTC)
		return nil

	case transitionFlip:
		if exe.Quantity <= 0 {
			return fmt.Errorf("flip with non-positive quantity %f on execution %s: %w",
				exe.Quantity, exe.ExecutionID, ErrInvariantViolation)
		}

		// One execution, two trades: first close out the open position,
		// then reopen the leftover in the opposite direction. Commission
		// splits by quantity ratio.
		closeQty := math.Abs(p.signedQty)
		leftover := p.signedQty + signed
		ratio := closeQty / exe.Quantity
		closeCommission := exe.Commission * ratio
		openCommission := exe.Commission - closeCommission

		if err := p.closePortion(exe, closeQty, closeCommission); err != nil {
			return err
		}
		p.finalize(exe.TsUTC)
		p.open(exe, leftover, openCommission)
		return p.checkInvariants(exe)
	}

	return fmt.Errorf("unreachable transition for execution %s: %w", exe.ExecutionID, ErrInvariantViolation)
}

// finish flushes day rows for a trade still open at the end of the
// execution history. The trade itself stays open.
func (p *positionTracker) finish() {
	if p.trade == nil {
		return
	}
	p.out = append(p.out, p.days.flush(p.trade.ID, false)...)
}

func (p *positionTracker) classify(signed float64) transition {
	if p.signedQty == 0 {
		return transitionOpen
	}
	if (p.signedQty > 0) == (signed > 0) {
		return transitionAdd
	}

	absPos := math.Abs(p.signedQty)
	absExe := math.Abs(signed)
	switch {
	case absExe > absPos+qtyEpsilon:
		return transitionFlip
	case absExe >= absPos-qtyEpsilon:
		return transitionFullClose
	default:
		return transitionPartialClose
	}
}

// open starts a new trade from flat. signed carries the direction; its
// absolute value is the opening quantity (the leftover quantity on a flip).
func (p *positionTracker) open(exe *domain.Execution, signed, commission float64) {
	qty := math.Abs(signed)
	direction := domain.DirectionLong
	if signed < 0 {
		direction = domain.DirectionShort
	}

	id := idhash.ComputeTradeID(p.accountID, p.instrumentKey, exe.TsUTC.UnixMilli(), p.sequence)
	p.sequence++

	trade := &domain.Trade{
		ID:              id,
		AccountID:       p.accountID,
		Symbol:          p.symbol,
		ConID:           p.conID,
		InstrumentKey:   p.instrumentKey,
		Direction:       direction,
		Status:          domain.TradeStatusOpen,
		OpenedAtUTC:     exe.TsUTC,
		QuantityOpened:  qty,
		AvgEntryPrice:   exe.Price,
		CommissionTotal: commission,
		NetPnlTotal:     commission,
	}

	p.trade = trade
	p.trades = append(p.trades, trade)
	p.signedQty = signed
	p.lots.push(qty, exe.Price, exe.ID)

	p.links = append(p.links, &domain.TradeExecutionLink{
		TradeID:     trade.ID,
		ExecutionID: exe.ID,
		SignedQty:   signed,
		Role:        domain.RoleOpen,
	})
	p.days.addOpen(exe.TsUTC, commission)
}

// add increases the open position in its current direction.
func (p *positionTracker) add(exe *domain.Execution, signed float64) {
	qty := exe.Quantity

	p.trade.AvgEntryPrice = weightedAvg(p.trade.AvgEntryPrice, p.trade.QuantityOpened, exe.Price, qty)
	p.trade.QuantityOpened += qty
	p.trade.CommissionTotal += exe.Commission
	p.trade.NetPnlTotal = p.trade.GrossPnlTotal + p.trade.CommissionTotal

	p.signedQty += signed
	p.lots.push(qty, exe.Price, exe.ID)

	p.links = append(p.links, &domain.TradeExecutionLink{
		TradeID:     p.trade.ID,
		ExecutionID: exe.ID,
		SignedQty:   signed,
		Role:        domain.RoleOpen,
	})
	p.days.addOpen(exe.TsUTC, exe.Commission)
}

// closePortion matches closeQty against the lot ledger FIFO, realizes P&L
// per matched slice, and moves the signed quantity toward zero.
func (p *positionTracker) closePortion(exe *domain.Execution, closeQty, commission float64) error {
	isLong := p.signedQty > 0

	matches, err := p.lots.match(closeQty)
	if err != nil {
		return err
	}

	gross := 0.0
	for _, m := range matches {
		if isLong {
			gross += (exe.Price - m.entryPrice) * m.qty
		} else {
			gross += (m.entryPrice - exe.Price) * m.qty
		}
	}

	p.trade.AvgExitPrice = weightedAvg(p.trade.AvgExitPrice, p.trade.QuantityClosed, exe.Price, closeQty)
	p.trade.QuantityClosed += closeQty
	p.trade.GrossPnlTotal += gross
	p.trade.CommissionTotal += commission
	p.trade.NetPnlTotal = p.trade.GrossPnlTotal + p.trade.CommissionTotal

	if isLong {
		p.signedQty -= closeQty
	} else {
		p.signedQty += closeQty
	}
	if math.Abs(p.signedQty) <= qtyEpsilon {
		p.signedQty = 0
	}

	linkQty := closeQty
	if isLong {
		linkQty = -closeQty
	}
	p.links = append(p.links, &domain.TradeExecutionLink{
		TradeID:     p.trade.ID,
		ExecutionID: exe.ID,
		SignedQty:   linkQty,
		Role:        domain.RoleClose,
	})
	p.days.addClose(exe.TsUTC, gross, commission, closeQty)

	return p.checkInvariants(exe)
}

// finalize closes out the current trade and flushes its day rows.
func (p *positionTracker) finalize(closedAt time.Time) {
	t := closedAt
	p.trade.ClosedAtUTC = &t
	p.trade.Status = domain.TradeStatusClosed

	p.out = append(p.out, p.days.flush(p.trade.ID, true)...)

	p.trade = nil
	p.lots = lotQueue{}
	p.signedQty = 0
}

// checkInvariants verifies the lot ledger against the signed quantity.
func (p *positionTracker) checkInvariants(exe *domain.Execution) error {
	const tolerance = 1e-6

	if math.Abs(math.Abs(p.signedQty)-p.lots.total()) > tolerance {
		return fmt.Errorf("lot ledger total %f does not match position %f after execution %s: %w",
			p.lots.total(), p.signedQty, exe.ExecutionID, ErrInvariantViolation)
	}
	if (p.signedQty == 0) != p.lots.empty() {
		return fmt.Errorf("lot ledger emptiness disagrees with position %f after execution %s: %w",
			p.signedQty, exe.ExecutionID, ErrInvariantViolation)
	}
	return nil
}

// weightedAvg folds a new fill into a quantity-weighted average price.
func weightedAvg(avg, qty, price, addQty float64) float64 {
	if qty+addQty <= 0 {
		return avg
	}
	return (avg*qty + price*addQty) / (qty + addQty)
}
