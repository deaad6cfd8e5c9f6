package reconstruct

import (
	"errors"
	"math"
	"testing"
)

func TestLotQueue_MatchFIFO(t *testing.T) {
	var q lotQueue
	q.push(10, 100, "e1")
	q.push(10, 110, "e2")

	matches, err := q.match(15)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].qty != 10 || matches[0].entryPrice != 100 {
		t.Errorf("first match = %+v, want qty 10 price 100", matches[0])
	}
	if matches[1].qty != 5 || matches[1].entryPrice != 110 {
		t.Errorf("second match = %+v, want qty 5 price 110", matches[1])
	}
	if got := q.total(); math.Abs(got-5) > qtyEpsilon {
		t.Errorf("remaining total = %f, want 5", got)
	}
}

func TestLotQueue_MatchExact(t *testing.T) {
	var q lotQueue
	q.push(10, 100, "e1")

	matches, err := q.match(10)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if !q.empty() {
		t.Errorf("queue should be empty after exact match, total = %f", q.total())
	}
}

func TestLotQueue_MatchOverdraw(t *testing.T) {
	var q lotQueue
	q.push(10, 100, "e1")

	_, err := q.match(11)
	if err == nil {
		t.Fatal("expected error for overdraw")
	}
	if !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestLotQueue_FractionalResidue(t *testing.T) {
	var q lotQueue
	q.push(0.3, 100, "e1")

	// 0.1+0.1+0.1 accumulates float error; the epsilon sweep must still
	// drain the lot.
	for i := 0; i < 3; i++ {
		if _, err := q.match(0.1); err != nil {
			t.Fatalf("match %d failed: %v", i, err)
		}
	}
	if !q.empty() {
		t.Errorf("queue should be empty after matching 3x0.1 against 0.3, total = %g", q.total())
	}
}
