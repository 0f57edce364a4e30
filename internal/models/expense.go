package models

import "github.com/coconutsplit/coconutsplit/internal/money"

// Expense represents money one member paid on behalf of others.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable name of the expense (e.g., "Dinner").
	Description string

	// Amount is the total paid by the payer, in cents.
	Amount money.Amount

	// PaidBy is the user ID of the member who paid.
	PaidBy string

	// Splits is how the total divides among the other members.
	// Splits are persisted exactly as submitted: removing the expense
	// replays their negation, so arbitrary prior edits undo cleanly.
	Splits []Split

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one member's share of an expense.
type Split struct {
	// UserID is the member who owes this share.
	UserID string

	// Amount is the share owed to the payer, in cents.
	Amount money.Amount
}

// SplitTotal returns the sum of all split amounts.
func (e *Expense) SplitTotal() money.Amount {
	var total money.Amount
	for _, s := range e.Splits {
		total += s.Amount
	}
	return total
}
