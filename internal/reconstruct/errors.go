package reconstruct

import "errors"

// ErrInvariantViolation is returned when the position model reaches a state
// that valid input cannot produce: the lot ledger disagreeing with the
// signed quantity, or a zero-quantity execution reaching commission
// pro-rating. It indicates a parser defect or a reconstruction bug, and
// aborts the account's rebuild so inconsistent rows are never persisted.
var ErrInvariantViolation = errors.New("reconstruction invariant violated")
