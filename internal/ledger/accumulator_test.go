package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
)

// memStore applies increments to an in-memory pairwise table so tests can
// check the ledger invariants without a database.
type memStore struct {
	balances map[[2]string]money.Amount
	failNext bool
}

func newMemStore() *memStore {
	return &memStore{balances: make(map[[2]string]money.Amount)}
}

func (m *memStore) ApplyIncrements(_ context.Context, _ string, incs []models.Increment) error {
	if m.failNext {
		m.failNext = false
		return errors.New("storage unavailable")
	}
	for _, inc := range incs {
		m.balances[[2]string{inc.UserID, inc.OppUserID}] += inc.Delta
	}
	return nil
}

func (m *memStore) rows() []models.BalanceRow {
	var rows []models.BalanceRow
	for pair, amt := range m.balances {
		rows = append(rows, models.BalanceRow{UserID: pair[0], OppUserID: pair[1], Amount: amt})
	}
	return rows
}

// checkInvariants verifies anti-symmetry of the pairwise table and
// conservation of the derived net balances.
func checkInvariants(t *testing.T, m *memStore) {
	t.Helper()
	for pair, amt := range m.balances {
		mirror := m.balances[[2]string{pair[1], pair[0]}]
		if amt != -mirror {
			t.Errorf("anti-symmetry broken: (%s,%s)=%d but (%s,%s)=%d",
				pair[0], pair[1], amt, pair[1], pair[0], mirror)
		}
	}
	var total money.Amount
	for _, bal := range NetBalances(m.rows()) {
		total += bal
	}
	if total != 0 {
		t.Errorf("net balances sum to %d, want 0", total)
	}
}

func cents(s string) money.Amount {
	a, err := money.Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestApplyExpenseAdded(t *testing.T) {
	store := newMemStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	// A pays 30.00 split equally three ways.
	exp := &models.Expense{
		GroupID: "g1",
		PaidBy:  "A",
		Amount:  cents("30.00"),
		Splits: []models.Split{
			{UserID: "A", Amount: cents("10.00")},
			{UserID: "B", Amount: cents("10.00")},
			{UserID: "C", Amount: cents("10.00")},
		},
	}
	if err := acc.ApplyExpenseAdded(ctx, exp); err != nil {
		t.Fatalf("ApplyExpenseAdded failed: %v", err)
	}

	if got := store.balances[[2]string{"B", "A"}]; got != cents("10.00") {
		t.Errorf("B owes A %d, want 1000", got)
	}
	if got := store.balances[[2]string{"C", "A"}]; got != cents("10.00") {
		t.Errorf("C owes A %d, want 1000", got)
	}
	// The payer's self-split must never materialize.
	if _, ok := store.balances[[2]string{"A", "A"}]; ok {
		t.Error("self-split was recorded")
	}
	checkInvariants(t, store)
}

func TestApplyExpenseRemovedRestoresPriorState(t *testing.T) {
	store := newMemStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	exp := &models.Expense{
		GroupID: "g1",
		PaidBy:  "A",
		Amount:  cents("30.00"),
		Splits: []models.Split{
			{UserID: "B", Amount: cents("17.50")},
			{UserID: "C", Amount: cents("12.50")},
		},
	}
	if err := acc.ApplyExpenseAdded(ctx, exp); err != nil {
		t.Fatalf("ApplyExpenseAdded failed: %v", err)
	}
	if err := acc.ApplyExpenseRemoved(ctx, exp); err != nil {
		t.Fatalf("ApplyExpenseRemoved failed: %v", err)
	}

	for pair, amt := range store.balances {
		if amt != 0 {
			t.Errorf("balance (%s,%s) = %d after add+remove, want 0", pair[0], pair[1], amt)
		}
	}
	checkInvariants(t, store)
}

func TestApplySettlementReducesDebt(t *testing.T) {
	store := newMemStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	exp := &models.Expense{
		GroupID: "g1",
		PaidBy:  "A",
		Amount:  cents("30.00"),
		Splits: []models.Split{
			{UserID: "A", Amount: cents("10.00")},
			{UserID: "B", Amount: cents("10.00")},
			{UserID: "C", Amount: cents("10.00")},
		},
	}
	if err := acc.ApplyExpenseAdded(ctx, exp); err != nil {
		t.Fatalf("ApplyExpenseAdded failed: %v", err)
	}

	// B settles up with A; only C's debt remains.
	debts := []models.SimplifiedDebt{{FromUserID: "B", ToUserID: "A", Amount: cents("10.00")}}
	if err := acc.ApplySettlementsRecorded(ctx, "g1", debts); err != nil {
		t.Fatalf("ApplySettlementsRecorded failed: %v", err)
	}

	if got := store.balances[[2]string{"B", "A"}]; got != 0 {
		t.Errorf("B still owes A %d after settling", got)
	}
	if got := store.balances[[2]string{"C", "A"}]; got != cents("10.00") {
		t.Errorf("C owes A %d, want 1000", got)
	}
	checkInvariants(t, store)
}

func TestApplySettlementRemovedRestoresDebt(t *testing.T) {
	store := newMemStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	s := &models.Settlement{GroupID: "g1", FromUserID: "B", ToUserID: "A", Amount: cents("7.25")}
	debts := []models.SimplifiedDebt{{FromUserID: s.FromUserID, ToUserID: s.ToUserID, Amount: s.Amount}}
	if err := acc.ApplySettlementsRecorded(ctx, "g1", debts); err != nil {
		t.Fatalf("ApplySettlementsRecorded failed: %v", err)
	}
	if err := acc.ApplySettlementRemoved(ctx, s); err != nil {
		t.Fatalf("ApplySettlementRemoved failed: %v", err)
	}

	for pair, amt := range store.balances {
		if amt != 0 {
			t.Errorf("balance (%s,%s) = %d after record+remove, want 0", pair[0], pair[1], amt)
		}
	}
}

func TestExpenseIncrementsValidation(t *testing.T) {
	tests := []struct {
		name    string
		total   money.Amount
		splits  []models.Split
		wantErr error
	}{
		{
			name:  "splits under total",
			total: cents("10.00"),
			splits: []models.Split{
				{UserID: "A", Amount: cents("3.33")},
				{UserID: "B", Amount: cents("3.33")},
				{UserID: "C", Amount: cents("3.33")},
			},
			wantErr: ErrSplitMismatch,
		},
		{
			name:  "splits match after rounding up",
			total: cents("10.00"),
			splits: []models.Split{
				{UserID: "A", Amount: cents("3.33")},
				{UserID: "B", Amount: cents("3.33")},
				{UserID: "C", Amount: cents("3.34")},
			},
		},
		{
			name:  "splits one cent over total",
			total: cents("10.00"),
			splits: []models.Split{
				{UserID: "A", Amount: cents("3.34")},
				{UserID: "B", Amount: cents("3.34")},
				{UserID: "C", Amount: cents("3.33")},
			},
			wantErr: ErrSplitMismatch,
		},
		{
			name:    "non-positive split",
			total:   cents("10.00"),
			splits:  []models.Split{{UserID: "B", Amount: 0}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative split",
			total:   cents("10.00"),
			splits:  []models.Split{{UserID: "B", Amount: cents("-5.00")}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "split at ceiling",
			total:   money.Max,
			splits:  []models.Split{{UserID: "B", Amount: money.Max}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "non-positive total",
			total:   0,
			splits:  []models.Split{{UserID: "B", Amount: cents("1.00")}},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpenseIncrements("A", tt.total, tt.splits)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ExpenseIncrements error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpenseIncrements unexpected error: %v", err)
			}
		})
	}
}

func TestSettlementIncrementsValidation(t *testing.T) {
	if _, err := SettlementIncrements("A", "B", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero settlement: error = %v, want ErrInvalidAmount", err)
	}
	if _, err := SettlementIncrements("A", "B", cents("-1.00")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative settlement: error = %v, want ErrInvalidAmount", err)
	}
	if _, err := SettlementIncrements("A", "B", money.Max); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("settlement at ceiling: error = %v, want ErrInvalidAmount", err)
	}
}

func TestStorageFailureLeavesValidationError(t *testing.T) {
	store := newMemStore()
	store.failNext = true
	acc := NewAccumulator(store)

	debts := []models.SimplifiedDebt{{FromUserID: "B", ToUserID: "A", Amount: cents("5.00")}}
	err := acc.ApplySettlementsRecorded(context.Background(), "g1", debts)
	if !errors.Is(err, ErrLedgerWriteConflict) {
		t.Fatalf("error = %v, want ErrLedgerWriteConflict", err)
	}
	if len(store.balances) != 0 {
		t.Error("increments applied despite storage failure")
	}
}

func TestConservationAcrossEventSequence(t *testing.T) {
	store := newMemStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	events := []*models.Expense{
		{GroupID: "g1", PaidBy: "A", Amount: cents("30.00"), Splits: []models.Split{
			{UserID: "A", Amount: cents("10.00")},
			{UserID: "B", Amount: cents("10.00")},
			{UserID: "C", Amount: cents("10.00")},
		}},
		{GroupID: "g1", PaidBy: "B", Amount: cents("45.50"), Splits: []models.Split{
			{UserID: "A", Amount: cents("20.25")},
			{UserID: "C", Amount: cents("25.25")},
		}},
		{GroupID: "g1", PaidBy: "C", Amount: cents("12.00"), Splits: []models.Split{
			{UserID: "A", Amount: cents("6.00")},
			{UserID: "B", Amount: cents("6.00")},
		}},
	}

	for i, e := range events {
		if err := acc.ApplyExpenseAdded(ctx, e); err != nil {
			t.Fatalf("event %d failed: %v", i, err)
		}
		checkInvariants(t, store)
	}

	debts := []models.SimplifiedDebt{{FromUserID: "A", ToUserID: "B", Amount: cents("5.00")}}
	if err := acc.ApplySettlementsRecorded(ctx, "g1", debts); err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	checkInvariants(t, store)

	if err := acc.ApplyExpenseRemoved(ctx, events[1]); err != nil {
		t.Fatalf("removal failed: %v", err)
	}
	checkInvariants(t, store)
}
