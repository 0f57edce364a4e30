package sqlite

import (
	"context"
	"fmt"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
)

// ReadPositiveBalances returns the strictly positive balance rows for a
// group. Each positive row implies its mirrored negative twin, so reading
// one direction is enough to reconstruct every net position.
func (s *SQLiteStore) ReadPositiveBalances(ctx context.Context, groupID string) ([]models.BalanceRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, opp_user_id, amount FROM debts WHERE group_id = ? AND amount > 0 ORDER BY user_id, opp_user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}
	defer rows.Close()

	var balances []models.BalanceRow
	for rows.Next() {
		row := models.BalanceRow{GroupID: groupID}
		var amount int64
		if err := rows.Scan(&row.UserID, &row.OppUserID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		row.Amount = money.Amount(amount)
		balances = append(balances, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance rows: %w", err)
	}

	return balances, nil
}

// ApplyIncrements accumulates a batch of signed deltas into the group's
// balance rows inside a single transaction. Rows are created on first touch;
// either every increment applies or none do.
func (s *SQLiteStore) ApplyIncrements(ctx context.Context, groupID string, incs []models.Increment) error {
	if len(incs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, inc := range incs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO debts (group_id, user_id, opp_user_id, amount) VALUES (?, ?, ?, ?)
			 ON CONFLICT(group_id, user_id, opp_user_id) DO UPDATE SET amount = amount + excluded.amount`,
			groupID, inc.UserID, inc.OppUserID, int64(inc.Delta),
		)
		if err != nil {
			return fmt.Errorf("failed to apply increment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
