package ledger

import (
	"context"
	"fmt"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
)

// BalanceStore applies a batch of signed increments to a group's pairwise
// balance table. The batch must be all-or-nothing: a partial write would
// break the anti-symmetry invariant.
type BalanceStore interface {
	ApplyIncrements(ctx context.Context, groupID string, incs []models.Increment) error
}

// Accumulator turns ledger events into balance increments and applies them.
// It holds no state of its own; calls for different groups are independent,
// and calls for the same group serialize at the storage transaction.
type Accumulator struct {
	store BalanceStore
}

// NewAccumulator creates an Accumulator writing through the given store.
func NewAccumulator(store BalanceStore) *Accumulator {
	return &Accumulator{store: store}
}

// ExpenseIncrements computes the mirrored increments for an expense: each
// split member owes the payer their share. Splits where the member is the
// payer net to zero and are skipped. The splits must sum to the expense
// total; any residue below money.Tolerance would be sub-cent, which integer
// cents cannot carry, so the sum is checked for exact equality.
func ExpenseIncrements(paidBy string, total money.Amount, splits []models.Split) ([]models.Increment, error) {
	if total <= 0 || total >= money.Max {
		return nil, fmt.Errorf("%w: expense total %s", ErrInvalidAmount, total)
	}

	var sum money.Amount
	for _, s := range splits {
		if s.Amount <= 0 || s.Amount >= money.Max {
			return nil, fmt.Errorf("%w: split of %s for user %s", ErrInvalidAmount, s.Amount, s.UserID)
		}
		sum += s.Amount
	}
	if (sum - total).Abs() >= money.Tolerance {
		return nil, fmt.Errorf("%w: splits total %s, expense total %s", ErrSplitMismatch, sum, total)
	}

	incs := make([]models.Increment, 0, 2*len(splits))
	for _, s := range splits {
		if s.UserID == paidBy {
			continue
		}
		incs = append(incs,
			models.Increment{UserID: s.UserID, OppUserID: paidBy, Delta: s.Amount},
			models.Increment{UserID: paidBy, OppUserID: s.UserID, Delta: -s.Amount},
		)
	}
	return incs, nil
}

// SettlementIncrements computes the mirrored increments for a payment from
// a debtor to a creditor: the debtor's row toward the creditor decreases.
func SettlementIncrements(fromUserID, toUserID string, amount money.Amount) ([]models.Increment, error) {
	if amount <= 0 || amount >= money.Max {
		return nil, fmt.Errorf("%w: settlement of %s", ErrInvalidAmount, amount)
	}
	return []models.Increment{
		{UserID: fromUserID, OppUserID: toUserID, Delta: -amount},
		{UserID: toUserID, OppUserID: fromUserID, Delta: amount},
	}, nil
}

// negate returns the exact inverse of a batch of increments.
func negate(incs []models.Increment) []models.Increment {
	out := make([]models.Increment, len(incs))
	for i, inc := range incs {
		out[i] = models.Increment{UserID: inc.UserID, OppUserID: inc.OppUserID, Delta: -inc.Delta}
	}
	return out
}

// ApplyExpenseAdded validates the expense and applies its increments.
func (a *Accumulator) ApplyExpenseAdded(ctx context.Context, e *models.Expense) error {
	incs, err := ExpenseIncrements(e.PaidBy, e.Amount, e.Splits)
	if err != nil {
		return err
	}
	return a.apply(ctx, e.GroupID, incs)
}

// ApplyExpenseRemoved undoes an expense by applying the negation of its
// original increments. It must be called with the splits the expense was
// stored with, not recomputed ones.
func (a *Accumulator) ApplyExpenseRemoved(ctx context.Context, e *models.Expense) error {
	incs, err := ExpenseIncrements(e.PaidBy, e.Amount, e.Splits)
	if err != nil {
		return err
	}
	return a.apply(ctx, e.GroupID, negate(incs))
}

// ApplySettlementsRecorded applies a batch of accepted settlements as one
// atomic write across every pair involved.
func (a *Accumulator) ApplySettlementsRecorded(ctx context.Context, groupID string, debts []models.SimplifiedDebt) error {
	incs := make([]models.Increment, 0, 2*len(debts))
	for _, d := range debts {
		pair, err := SettlementIncrements(d.FromUserID, d.ToUserID, d.Amount)
		if err != nil {
			return err
		}
		incs = append(incs, pair...)
	}
	return a.apply(ctx, groupID, incs)
}

// ApplySettlementRemoved undoes a recorded settlement, restoring the debt.
func (a *Accumulator) ApplySettlementRemoved(ctx context.Context, s *models.Settlement) error {
	incs, err := SettlementIncrements(s.FromUserID, s.ToUserID, s.Amount)
	if err != nil {
		return err
	}
	return a.apply(ctx, s.GroupID, negate(incs))
}

func (a *Accumulator) apply(ctx context.Context, groupID string, incs []models.Increment) error {
	if len(incs) == 0 {
		return nil
	}
	if err := a.store.ApplyIncrements(ctx, groupID, incs); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWriteConflict, err)
	}
	return nil
}
