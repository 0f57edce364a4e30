package ledger

import (
	"fmt"
	"sort"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
)

// minReportable is the smallest payment worth emitting: one cent.
const minReportable money.Amount = 1

// party is one side of the greedy matching: a user with the magnitude of
// their remaining net position.
type party struct {
	userID    string
	magnitude money.Amount
}

// NetBalances folds the strictly positive balance rows into per-user net
// positions: positive means the user is owed money, negative means they owe.
// Only the positive direction of each pair is consumed; the mirrored
// negative row carries no extra information.
func NetBalances(rows []models.BalanceRow) map[string]money.Amount {
	balances := make(map[string]money.Amount)
	for _, row := range rows {
		if row.Amount <= 0 {
			continue
		}
		balances[row.UserID] -= row.Amount
		balances[row.OppUserID] += row.Amount
	}
	return balances
}

// Simplify collapses a group's pairwise balances into the minimum set of
// payments that zeroes every net position. members is the group's current
// membership; a row referencing anyone else rejects the whole snapshot.
//
// The matching is greedy: repeatedly pay the largest remaining debtor's
// whole capacity toward the largest remaining creditor. Ties break on user
// ID so identical input always yields identical output.
func Simplify(rows []models.BalanceRow, members map[string]bool) ([]models.SimplifiedDebt, error) {
	for _, row := range rows {
		if !members[row.UserID] {
			return nil, fmt.Errorf("%w: unknown user %s", ErrInvalidBalanceInput, row.UserID)
		}
		if !members[row.OppUserID] {
			return nil, fmt.Errorf("%w: unknown user %s", ErrInvalidBalanceInput, row.OppUserID)
		}
		// Per-event amounts are capped, but a row accumulates across events.
		// A row at or past the ceiling would emit a payment no settlement
		// could record, so the whole snapshot is rejected.
		if row.Amount.Abs() >= money.Max {
			return nil, fmt.Errorf("%w: balance of %s between %s and %s out of range",
				ErrInvalidBalanceInput, row.Amount, row.UserID, row.OppUserID)
		}
	}

	balances := NetBalances(rows)

	var creditors, debtors []party
	for userID, bal := range balances {
		switch {
		case bal >= minReportable:
			creditors = append(creditors, party{userID: userID, magnitude: bal})
		case bal <= -minReportable:
			debtors = append(debtors, party{userID: userID, magnitude: -bal})
		}
		// Users whose net position rounds to zero drop out before matching.
	}

	sortParties(creditors)
	sortParties(debtors)

	var debts []models.SimplifiedDebt
	for len(creditors) > 0 && len(debtors) > 0 {
		// Largest of each side sits at the tail.
		c := &creditors[len(creditors)-1]
		d := &debtors[len(debtors)-1]

		amt := c.magnitude
		if d.magnitude < amt {
			amt = d.magnitude
		}
		if amt >= minReportable {
			debts = append(debts, models.SimplifiedDebt{
				FromUserID: d.userID,
				ToUserID:   c.userID,
				Amount:     amt,
			})
		}

		c.magnitude -= amt
		d.magnitude -= amt

		if c.magnitude == 0 {
			creditors = creditors[:len(creditors)-1]
		} else {
			siftTail(creditors)
		}
		if d.magnitude == 0 {
			debtors = debtors[:len(debtors)-1]
		} else {
			siftTail(debtors)
		}
	}

	// Total credit equals total debt, so both sides empty together.
	return debts, nil
}

// sortParties orders ascending by magnitude, breaking ties on user ID, so
// the tail is always the largest party and output is reproducible.
func sortParties(ps []party) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].magnitude != ps[j].magnitude {
			return ps[i].magnitude < ps[j].magnitude
		}
		return ps[i].userID < ps[j].userID
	})
}

// siftTail restores ascending order after the tail element shrank, shifting
// it left past any larger neighbors.
func siftTail(ps []party) {
	for i := len(ps) - 1; i > 0; i-- {
		if less(ps[i-1], ps[i]) {
			return
		}
		ps[i-1], ps[i] = ps[i], ps[i-1]
	}
}

func less(a, b party) bool {
	if a.magnitude != b.magnitude {
		return a.magnitude < b.magnitude
	}
	return a.userID < b.userID
}
