package domain

import "time"

// Account represents one brokerage account. Executions and reconstructed
// trades are keyed by the account's surrogate id, not the broker-assigned
// account number.
type Account struct {
	ID            string // surrogate uuid
	AccountNumber string // broker account number, e.g. U1234567
	Currency      string // account base currency
	CreatedAt     time.Time
}
