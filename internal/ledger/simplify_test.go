package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
)

func members(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// row builds a positive balance row: from owes to the given amount.
func row(from, to, amount string) models.BalanceRow {
	return models.BalanceRow{UserID: from, OppUserID: to, Amount: cents(amount)}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name    string
		rows    []models.BalanceRow
		members map[string]bool
		want    []models.SimplifiedDebt
		wantErr error
	}{
		{
			name:    "empty ledger",
			rows:    nil,
			members: members("A", "B"),
			want:    nil,
		},
		{
			name:    "single debtor single creditor",
			rows:    []models.BalanceRow{row("B", "A", "10.00")},
			members: members("A", "B"),
			want: []models.SimplifiedDebt{
				{FromUserID: "B", ToUserID: "A", Amount: cents("10.00")},
			},
		},
		{
			name: "one payer split equally",
			rows: []models.BalanceRow{
				row("B", "A", "10.00"),
				row("C", "A", "10.00"),
			},
			members: members("A", "B", "C"),
			want: []models.SimplifiedDebt{
				{FromUserID: "C", ToUserID: "A", Amount: cents("10.00")},
				{FromUserID: "B", ToUserID: "A", Amount: cents("10.00")},
			},
		},
		{
			name: "chain collapses through middle user",
			rows: []models.BalanceRow{
				row("A", "B", "10.00"),
				row("B", "C", "10.00"),
			},
			members: members("A", "B", "C"),
			want: []models.SimplifiedDebt{
				{FromUserID: "A", ToUserID: "C", Amount: cents("10.00")},
			},
		},
		{
			name: "mutual debts cancel exactly",
			rows: []models.BalanceRow{
				row("A", "B", "5.00"),
				row("B", "A", "5.00"),
			},
			members: members("A", "B"),
			want:    nil,
		},
		{
			name: "one debtor pays several creditors",
			rows: []models.BalanceRow{
				row("D", "A", "12.00"),
				row("D", "B", "7.00"),
				row("D", "C", "3.00"),
			},
			members: members("A", "B", "C", "D"),
			want: []models.SimplifiedDebt{
				{FromUserID: "D", ToUserID: "A", Amount: cents("12.00")},
				{FromUserID: "D", ToUserID: "B", Amount: cents("7.00")},
				{FromUserID: "D", ToUserID: "C", Amount: cents("3.00")},
			},
		},
		{
			name: "equal magnitudes break ties on user id",
			rows: []models.BalanceRow{
				row("C", "A", "5.00"),
				row("D", "B", "5.00"),
			},
			members: members("A", "B", "C", "D"),
			want: []models.SimplifiedDebt{
				{FromUserID: "D", ToUserID: "B", Amount: cents("5.00")},
				{FromUserID: "C", ToUserID: "A", Amount: cents("5.00")},
			},
		},
		{
			name: "row references user outside group",
			rows: []models.BalanceRow{
				row("B", "X", "10.00"),
			},
			members: members("A", "B"),
			wantErr: ErrInvalidBalanceInput,
		},
		{
			name: "row accumulated past amount ceiling",
			rows: []models.BalanceRow{
				{UserID: "B", OppUserID: "A", Amount: money.Max},
			},
			members: members("A", "B"),
			wantErr: ErrInvalidBalanceInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(tt.rows, tt.members)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Simplify error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Simplify unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Simplify = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	rows := []models.BalanceRow{
		row("B", "A", "33.10"),
		row("C", "A", "12.40"),
		row("C", "B", "8.00"),
		row("D", "C", "21.75"),
	}
	m := members("A", "B", "C", "D")

	first, err := Simplify(rows, m)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Simplify(rows, m)
		if err != nil {
			t.Fatalf("Simplify failed on repeat: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestSimplifyMinimality(t *testing.T) {
	rows := []models.BalanceRow{
		row("B", "A", "10.00"),
		row("C", "A", "20.00"),
		row("C", "B", "5.00"),
		row("D", "B", "15.00"),
		row("E", "D", "2.50"),
	}
	m := members("A", "B", "C", "D", "E")

	debts, err := Simplify(rows, m)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}

	nonzero := 0
	for _, bal := range NetBalances(rows) {
		if bal != 0 {
			nonzero++
		}
	}
	if len(debts) > nonzero-1 {
		t.Errorf("%d transactions for %d unbalanced users, want at most %d",
			len(debts), nonzero, nonzero-1)
	}
}

// TestSimplifyRoundTrip checks that paying every simplified debt as a
// settlement drives all balances to zero.
func TestSimplifyRoundTrip(t *testing.T) {
	store := newMemStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	expenses := []*models.Expense{
		{GroupID: "g1", PaidBy: "A", Amount: cents("90.00"), Splits: []models.Split{
			{UserID: "A", Amount: cents("30.00")},
			{UserID: "B", Amount: cents("30.00")},
			{UserID: "C", Amount: cents("30.00")},
		}},
		{GroupID: "g1", PaidBy: "B", Amount: cents("40.00"), Splits: []models.Split{
			{UserID: "C", Amount: cents("22.00")},
			{UserID: "D", Amount: cents("18.00")},
		}},
		{GroupID: "g1", PaidBy: "D", Amount: cents("10.01"), Splits: []models.Split{
			{UserID: "A", Amount: cents("10.01")},
		}},
	}
	for _, e := range expenses {
		if err := acc.ApplyExpenseAdded(ctx, e); err != nil {
			t.Fatalf("ApplyExpenseAdded failed: %v", err)
		}
	}

	positive := positiveRows(store)
	debts, err := Simplify(positive, members("A", "B", "C", "D"))
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if err := acc.ApplySettlementsRecorded(ctx, "g1", debts); err != nil {
		t.Fatalf("ApplySettlementsRecorded failed: %v", err)
	}

	for userID, bal := range NetBalances(positiveRows(store)) {
		if bal != 0 {
			t.Errorf("user %s still has net balance %d after settling all debts", userID, bal)
		}
	}
}

func positiveRows(m *memStore) []models.BalanceRow {
	var rows []models.BalanceRow
	for _, r := range m.rows() {
		if r.Amount > 0 {
			rows = append(rows, r)
		}
	}
	return rows
}

func TestNetBalancesIgnoresMirrorRows(t *testing.T) {
	rows := []models.BalanceRow{
		{UserID: "B", OppUserID: "A", Amount: cents("10.00")},
		{UserID: "A", OppUserID: "B", Amount: cents("-10.00")},
	}
	balances := NetBalances(rows)
	if balances["B"] != cents("-10.00") {
		t.Errorf("B net = %d, want -1000", balances["B"])
	}
	if balances["A"] != cents("10.00") {
		t.Errorf("A net = %d, want 1000", balances["A"])
	}
	var total money.Amount
	for _, b := range balances {
		total += b
	}
	if total != 0 {
		t.Errorf("net balances sum to %d, want 0", total)
	}
}
