package models

import "github.com/coconutsplit/coconutsplit/internal/money"

// BalanceRow is one direction of a pairwise debt:
// UserID owes OppUserID Amount cents (negative when OppUserID owes UserID).
// Rows are created implicitly on the first increment, seeded at zero when a
// member joins, and never deleted; they decay toward zero as debts settle.
type BalanceRow struct {
	GroupID   string
	UserID    string
	OppUserID string
	Amount    money.Amount
}

// Increment is a signed delta against one balance row. Increments always
// come in mirrored pairs so the anti-symmetry invariant survives every event.
type Increment struct {
	UserID    string
	OppUserID string
	Delta     money.Amount
}

// SimplifiedDebt is a proposed payment that, together with the rest of the
// simplifier's output, zeroes every net balance in the group. It becomes a
// Settlement only once a user confirms it.
type SimplifiedDebt struct {
	FromUserID string
	ToUserID   string
	Amount     money.Amount
}
