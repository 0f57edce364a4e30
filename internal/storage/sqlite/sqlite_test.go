package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
	"github.com/coconutsplit/coconutsplit/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "coconutsplit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	alice := models.NewUser("alice@example.com", "Alice", "hash-a")
	bob := models.NewUser("bob@example.com", "Bob", "hash-b")
	carol := models.NewUser("carol@example.com", "Carol", "hash-c")
	for _, u := range []*models.User{alice, bob, carol} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	group := &models.Group{
		Name:      "Roommates",
		CreatedBy: alice.ID,
		MemberIDs: []string{alice.ID, bob.ID},
	}

	t.Run("CreateGroup generates ID and seeds zero balances", func(t *testing.T) {
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		// Seeded rows are zero, so the positive read sees nothing.
		balances, err := store.ReadPositiveBalances(ctx, group.ID)
		if err != nil {
			t.Fatalf("ReadPositiveBalances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("Expected no positive balances in a fresh group, got %d", len(balances))
		}
	})

	t.Run("GetGroup retrieves members", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Roommates" {
			t.Errorf("Name mismatch: got %s", got.Name)
		}
		if len(got.MemberIDs) != 2 {
			t.Errorf("Expected 2 members, got %d", len(got.MemberIDs))
		}
	})

	t.Run("GetGroup returns ErrNotFound for unknown group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddGroupMember is idempotent", func(t *testing.T) {
		if err := store.AddGroupMember(ctx, group.ID, carol.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		if err := store.AddGroupMember(ctx, group.ID, carol.ID); err != nil {
			t.Fatalf("AddGroupMember (repeat) failed: %v", err)
		}

		members, err := store.ListGroupMembers(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListGroupMembers failed: %v", err)
		}
		if len(members) != 3 {
			t.Errorf("Expected 3 members, got %d", len(members))
		}
	})

	t.Run("ApplyIncrements accumulates atomically", func(t *testing.T) {
		incs := []models.Increment{
			{UserID: bob.ID, OppUserID: alice.ID, Delta: 1000},
			{UserID: alice.ID, OppUserID: bob.ID, Delta: -1000},
			{UserID: carol.ID, OppUserID: alice.ID, Delta: 1000},
			{UserID: alice.ID, OppUserID: carol.ID, Delta: -1000},
		}
		if err := store.ApplyIncrements(ctx, group.ID, incs); err != nil {
			t.Fatalf("ApplyIncrements failed: %v", err)
		}
		// Second batch accumulates onto existing rows.
		if err := store.ApplyIncrements(ctx, group.ID, incs[:2]); err != nil {
			t.Fatalf("ApplyIncrements (second batch) failed: %v", err)
		}

		balances, err := store.ReadPositiveBalances(ctx, group.ID)
		if err != nil {
			t.Fatalf("ReadPositiveBalances failed: %v", err)
		}
		if len(balances) != 2 {
			t.Fatalf("Expected 2 positive rows, got %d", len(balances))
		}
		want := map[string]money.Amount{bob.ID: 2000, carol.ID: 1000}
		for _, row := range balances {
			if row.OppUserID != alice.ID {
				t.Errorf("Unexpected creditor %s", row.OppUserID)
			}
			if row.Amount != want[row.UserID] {
				t.Errorf("Debtor %s owes %d, want %d", row.UserID, row.Amount, want[row.UserID])
			}
		}
	})

	t.Run("CreateExpense and GetExpense round trip", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Dinner",
			Amount:      3000,
			PaidBy:      alice.ID,
			Splits: []models.Split{
				{UserID: bob.ID, Amount: 1500},
				{UserID: carol.ID, Amount: 1500},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Amount != 3000 || got.PaidBy != alice.ID {
			t.Errorf("Expense mismatch: %+v", got)
		}
		if len(got.Splits) != 2 {
			t.Fatalf("Expected 2 splits, got %d", len(got.Splits))
		}
		if got.SplitTotal() != 3000 {
			t.Errorf("SplitTotal = %d, want 3000", got.SplitTotal())
		}
	})

	t.Run("DeleteExpense cascades splits", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Taxi",
			Amount:      900,
			PaidBy:      bob.ID,
			Splits:      []models.Split{{UserID: alice.ID, Amount: 900}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on double delete, got %v", err)
		}
	})

	t.Run("CreateSettlements persists batch", func(t *testing.T) {
		settlements := []*models.Settlement{
			{GroupID: group.ID, FromUserID: bob.ID, ToUserID: alice.ID, Amount: 2000, CreatedBy: bob.ID},
			{GroupID: group.ID, FromUserID: carol.ID, ToUserID: alice.ID, Amount: 1000, CreatedBy: bob.ID, Note: "lunch money"},
		}
		if err := store.CreateSettlements(ctx, settlements); err != nil {
			t.Fatalf("CreateSettlements failed: %v", err)
		}

		listed, err := store.ListSettlementsByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListSettlementsByGroup failed: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("Expected 2 settlements, got %d", len(listed))
		}

		got, err := store.GetSettlement(ctx, settlements[1].ID)
		if err != nil {
			t.Fatalf("GetSettlement failed: %v", err)
		}
		if got.Note != "lunch money" {
			t.Errorf("Note mismatch: %q", got.Note)
		}
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "bob@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != bob.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, bob.ID)
		}
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
