package reconstruct

import "fmt"

// Quantities are broker-reported share counts; anything below this is
// floating-point residue from partial matching.
const qtyEpsilon = 1e-9

// openLot is one remaining slice of opening quantity awaiting FIFO matching.
type openLot struct {
	qty         float64 // remaining, always > 0
	price       float64 // entry price
	executionID string  // surrogate id of the opening execution
}

// lotQueue is a strict FIFO ledger of open lots for one instrument.
// Lots are consumed from the front in arrival order and never reordered.
type lotQueue struct {
	lots []openLot
}

// push appends a new lot at the tail.
func (q *lotQueue) push(qty, price float64, executionID string) {
	q.lots = append(q.lots, openLot{qty: qty, price: price, executionID: executionID})
}

// total returns the sum of remaining quantities across all open lots.
func (q *lotQueue) total() float64 {
	sum := 0.0
	for _, lot := range q.lots {
		sum += lot.qty
	}
	return sum
}

// empty reports whether no open lots remain.
func (q *lotQueue) empty() bool {
	return len(q.lots) == 0
}

// lotMatch is one matched slice produced by match.
type lotMatch struct {
	qty         float64
	entryPrice  float64
	executionID string
}

// match consumes qty from the front of the queue, decrementing or removing
// lots as they exhaust, and returns the matched slices in arrival order.
// The caller must pre-clamp qty to total(); requesting more than is
// available violates the ledger contract.
func (q *lotQueue) match(qty float64) ([]lotMatch, error) {
	if qty > q.total()+qtyEpsilon {
		return nil, fmt.Errorf("match %f exceeds open quantity %f: %w", qty, q.total(), ErrInvariantViolation)
	}

	var matches []lotMatch
	remaining := qty

	for remaining > qtyEpsilon && len(q.lots) > 0 {
		lot := &q.lots[0]
		matched := lot.qty
		if remaining < matched {
			matched = remaining
		}

		matches = append(matches, lotMatch{
			qty:         matched,
			entryPrice:  lot.price,
			executionID: lot.executionID,
		})

		remaining -= matched
		lot.qty -= matched

		if lot.qty <= qtyEpsilon {
			q.lots = q.lots[1:]
		}
	}

	return matches, nil
}
