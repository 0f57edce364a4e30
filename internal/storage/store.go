// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/coconutsplit/coconutsplit/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Implementations wrap it so callers can match with errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateGroup persists a new group with its initial members.
	// The group.ID field will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group, including its member IDs.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMember adds a user to a group and seeds zero balance rows
	// between the new member and every existing member, both directions,
	// in a single transaction.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// ListGroupMembers returns the users in a group, ordered by display name.
	ListGroupMembers(ctx context.Context, groupID string) ([]*models.User, error)

	// CreateExpense persists an expense and its splits in one transaction.
	// The expense.ID field will be populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its original splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// DeleteExpense removes an expense; its splits cascade.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup returns a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// CreateSettlements persists a batch of settlement records in one
	// transaction. IDs and timestamps are populated by the store.
	CreateSettlements(ctx context.Context, settlements []*models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// DeleteSettlement removes a settlement record by ID.
	DeleteSettlement(ctx context.Context, settlementID string) error

	// ListSettlementsByGroup returns a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// ReadPositiveBalances returns the strictly positive balance rows for a
	// group. The mirrored negative rows are implied and not returned.
	ReadPositiveBalances(ctx context.Context, groupID string) ([]models.BalanceRow, error)

	// ApplyIncrements atomically accumulates a batch of signed deltas into
	// the group's balance rows, creating rows on first touch. Either every
	// increment applies or none do.
	ApplyIncrements(ctx context.Context, groupID string, incs []models.Increment) error

	// Close releases any resources held by the store.
	Close() error
}
