package ledger

import "errors"

var (
	// ErrInvalidAmount marks a non-positive amount or one at or above the
	// money.Max ceiling.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSplitMismatch marks splits whose sum drifts from the expense
	// total by money.Tolerance or more.
	ErrSplitMismatch = errors.New("splits do not sum to expense total")

	// ErrInvalidBalanceInput marks a balance snapshot referencing a user
	// outside the group's membership.
	ErrInvalidBalanceInput = errors.New("invalid balance snapshot")

	// ErrNotAGroupMember marks an operation referencing a user who is not
	// in the group.
	ErrNotAGroupMember = errors.New("user is not a group member")

	// ErrLedgerWriteConflict marks a failed atomic increment batch at the
	// storage boundary. No increments were applied.
	ErrLedgerWriteConflict = errors.New("ledger write conflict")
)
